// Package testing provides stub collaborators for applications built on
// paykit. TestPod is an in-memory stand-in for the remote storage system: it
// serves Turtle documents, lists containers via ldp:contains, and accepts
// writes and deletes, enabling full processor/sweeper tests without a real
// pod.
//
// Example usage:
//
//	pod := testing.NewTestPod()
//	defer pod.Close()
//
//	pod.AddTurtle("/private/f.txt.acl", aclBody)
//	client := solid.NewClient(nil, logrus.New())
//	doc, err := client.GetACL(ctx, pod.URL("/private/f.txt"))
package testing

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
)

// TestPod is a minimal LDP resource server. Paths ending in "/" are
// containers; their representation is generated from the stored documents.
type TestPod struct {
	server *httptest.Server

	mu   sync.Mutex
	docs map[string]string
}

// NewTestPod starts an empty pod. Call Close when done.
func NewTestPod() *TestPod {
	p := &TestPod{docs: make(map[string]string)}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	return p
}

// Close shuts down the pod server.
func (p *TestPod) Close() {
	p.server.Close()
}

// URL returns the absolute URL of a pod path.
func (p *TestPod) URL(path string) string {
	return p.server.URL + path
}

// AddTurtle stores a document at path.
func (p *TestPod) AddTurtle(path, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[path] = body
}

// Turtle returns the stored document at path.
func (p *TestPod) Turtle(path string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, ok := p.docs[path]
	return body, ok
}

// Has reports whether a document exists at path.
func (p *TestPod) Has(path string) bool {
	_, ok := p.Turtle(path)
	return ok
}

func (p *TestPod) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch r.Method {
	case http.MethodHead:
		if p.exists(path) {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodGet:
		p.serveGet(w, path)
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.AddTurtle(path, string(body))
		w.WriteHeader(http.StatusCreated)
	case http.MethodPost:
		if !strings.HasSuffix(path, "/") {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		name := fmt.Sprintf("doc-%d", len(p.docs)+1)
		p.docs[path+name] = string(body)
		p.mu.Unlock()
		w.Header().Set("Location", p.URL(path+name))
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		p.mu.Lock()
		_, ok := p.docs[path]
		delete(p.docs, path)
		p.mu.Unlock()
		if ok {
			w.WriteHeader(http.StatusNoContent)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// exists reports whether path names a document or a non-empty container.
func (p *TestPod) exists(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.docs[path]; ok {
		return true
	}
	if strings.HasSuffix(path, "/") {
		for k := range p.docs {
			if strings.HasPrefix(k, path) {
				return true
			}
		}
	}
	return false
}

func (p *TestPod) serveGet(w http.ResponseWriter, path string) {
	if strings.HasSuffix(path, "/") {
		if !p.exists(path) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		io.WriteString(w, p.containerTurtle(path))
		return
	}
	body, ok := p.Turtle(path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/turtle")
	io.WriteString(w, body)
}

// containerTurtle renders the membership graph of a container: one
// ldp:contains triple per direct member, relative identifiers.
func (p *TestPod) containerTurtle(path string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	members := map[string]bool{}
	for k := range p.docs {
		if !strings.HasPrefix(k, path) || k == path {
			continue
		}
		rest := k[len(path):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			members[rest[:i+1]] = true // direct subcontainer
		} else {
			members[rest] = true
		}
	}
	var names []string
	for m := range members {
		names = append(names, m)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("@prefix ldp: <http://www.w3.org/ns/ldp#> .\n")
	for _, m := range names {
		fmt.Fprintf(&b, "<> ldp:contains <%s> .\n", m)
	}
	return b.String()
}
