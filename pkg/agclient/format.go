// ABOUTME: Guard mapping declared RDF document formats to MIME content types
// ABOUTME: Rejects unknown formats before any request is issued

package agclient

// Supported document formats.
const (
	FormatNTriples = "ntriples"
	FormatRDFXML   = "rdf/xml"
)

// CheckFormat returns the content type for a document format name, or an
// *UnsupportedFormatError.
func CheckFormat(format string) (string, error) {
	switch format {
	case FormatNTriples:
		return "text/plain", nil
	case FormatRDFXML:
		return "application/rdf+xml", nil
	default:
		return "", &UnsupportedFormatError{Format: format}
	}
}
