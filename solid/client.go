// Package solid is the client for the remote storage collaborator: a Solid
// pod holding Turtle documents in LDP containers. It covers the resource
// directory operations (container listing, permission-document resolution)
// and raw document fetch/write/delete.
package solid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	graphkit "github.com/open-rails/paykit/graph"
)

// ErrNotFound is returned when the pod has no document at the requested URL.
// Callers treat it as "nothing to do", never as a failure.
var ErrNotFound = errors.New("solid: resource not found")

// ACLSuffix is the permission-document naming convention: the document for
// resource R lives at R + ACLSuffix.
const ACLSuffix = ".acl"

// aclLink is sent on permission-document requests per the WAC convention.
const aclLink = `<.acl>; rel="acl"`

// Client talks to one pod. All methods are safe for concurrent use.
type Client struct {
	http *http.Client
	auth Authenticator
	log  *logrus.Entry
}

// NewClient builds a pod client. auth may be nil for anonymous access.
func NewClient(auth Authenticator, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		http: &http.Client{Timeout: 30 * time.Second},
		auth: auth,
		log:  log.WithField("component", "solid"),
	}
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, header map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("solid: build %s %s: %w", method, url, err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if c.auth != nil {
		if err := c.auth.Authorize(req); err != nil {
			return nil, err
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solid: %s %s: %w", method, url, err)
	}
	return resp, nil
}

// GetGraph fetches and parses the Turtle document at url.
func (c *Client) GetGraph(ctx context.Context, url string) (*graphkit.Doc, error) {
	return c.getGraph(ctx, url, map[string]string{"Accept": graphkit.Turtle})
}

func (c *Client) getGraph(ctx context.Context, url string, header map[string]string) (*graphkit.Doc, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solid: GET %s: unexpected status %d", url, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("solid: read %s: %w", url, err)
	}
	return graphkit.Parse(url, string(raw))
}

// Head probes url. Returns ErrNotFound on 404.
func (c *Client) Head(ctx context.Context, url string) error {
	resp, err := c.do(ctx, http.MethodHead, url, nil, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("solid: HEAD %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}

// PutGraph serializes doc and writes it to url, replacing any previous
// representation.
func (c *Client) PutGraph(ctx context.Context, url string, doc *graphkit.Doc) error {
	return c.putGraph(ctx, url, doc, map[string]string{"Content-Type": graphkit.Turtle})
}

func (c *Client) putGraph(ctx context.Context, url string, doc *graphkit.Doc, header map[string]string) error {
	body, err := doc.Serialize()
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPut, url, strings.NewReader(body), header)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("solid: PUT %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}

// Delete removes the document at url. Deleting an already-absent document is
// not an error; a concurrent tick may have won the race.
func (c *Client) Delete(ctx context.Context, url string) error {
	resp, err := c.do(ctx, http.MethodDelete, url, nil, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("solid: DELETE %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}

// ListContainer returns the URLs of the members of an LDP container. An
// absent container lists as empty.
func (c *Client) ListContainer(ctx context.Context, containerURL string) ([]string, error) {
	if err := c.Head(ctx, containerURL); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	doc, err := c.GetGraph(ctx, containerURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var urls []string
	for _, member := range doc.Objects("", graphkit.LDPContains) {
		urls = append(urls, resolveMember(containerURL, member))
	}
	return urls, nil
}

// resolveMember joins a containment reference with its container. Pods emit
// either absolute URLs or members relative to the container.
func resolveMember(containerURL, member string) string {
	if strings.HasPrefix(member, "http://") || strings.HasPrefix(member, "https://") {
		return member
	}
	return strings.TrimSuffix(containerURL, "/") + "/" + strings.TrimPrefix(member, "/")
}

// ACLURL returns the permission-document URL for a resource.
func ACLURL(resourceURL string) string {
	return resourceURL + ACLSuffix
}

// GetACL fetches the permission document of resourceURL. ErrNotFound means
// the resource has no permission document of its own.
func (c *Client) GetACL(ctx context.Context, resourceURL string) (*graphkit.Doc, error) {
	return c.getGraph(ctx, ACLURL(resourceURL), map[string]string{
		"Accept": graphkit.Turtle,
		"Link":   aclLink,
	})
}

// PutACL writes back the permission document of resourceURL.
func (c *Client) PutACL(ctx context.Context, resourceURL string, doc *graphkit.Doc) error {
	return c.putGraph(ctx, ACLURL(resourceURL), doc, map[string]string{
		"Content-Type": graphkit.Turtle,
		"Link":         aclLink,
	})
}

// AgentEthAddress resolves the Ethereum address advertised in an agent's
// WebID profile document.
func (c *Client) AgentEthAddress(ctx context.Context, webID string) (string, error) {
	profile, err := c.GetGraph(ctx, webID)
	if err != nil {
		return "", err
	}
	addr, ok := profile.Literal("", graphkit.EthOnAddress)
	if !ok {
		return "", fmt.Errorf("solid: profile %s has no ethereum address", webID)
	}
	return addr, nil
}
