package graphkit

// Protocol vocabulary. These IRIs are wire-level constants shared with the
// buyer's client; changing any of them is a breaking protocol change.
const (
	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	// WAC / access control
	ACLNS            = "http://www.w3.org/ns/auth/acl#"
	ACLAuthorization = ACLNS + "Authorization"
	ACLAccessTo      = ACLNS + "accessTo"
	ACLAgent         = ACLNS + "agent"
	ACLMode          = ACLNS + "mode"
	ACLRead          = ACLNS + "Read"

	// OWL-Time temporal bounds on a grant
	TimeNS             = "http://www.w3.org/2006/time#"
	TimeTemporalEntity = TimeNS + "TemporalEntity"
	TimeInstant        = TimeNS + "Instant"
	TimeHasBeginning   = TimeNS + "hasBeginning"
	TimeHasEnd         = TimeNS + "hasEnd"
	TimeInXSDDateTime  = TimeNS + "inXSDDateTimeStamp"
	TimeNumericDur     = TimeNS + "numericDuration"
	TimeUnitType       = TimeNS + "unitType"

	XSDNS            = "http://www.w3.org/2001/XMLSchema#"
	XSDDateTimeStamp = XSDNS + "dateTimeStamp"

	// LDP containment
	LDPContains = "http://www.w3.org/ns/ldp#contains"

	// EthOn payment notification fields
	EthOnNS         = "http://ethon.consensys.net/"
	EthOnAddress    = EthOnNS + "address"
	EthOnTxHash     = EthOnNS + "txHash"
	EthOnValue      = EthOnNS + "value"
	EthOnMsgPayload = EthOnNS + "msgPayload"

	// Solid terms
	SolidAccount = "http://www.w3.org/ns/solid/terms#account"

	// schema.org offer fields
	SchemaURL           = "https://schema.org/url"
	SchemaPrice         = "https://schema.org/price"
	SchemaPriceCurrency = "https://schema.org/priceCurrency"
)
