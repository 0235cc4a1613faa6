package scan

import (
	"regexp"
)

// candidateURL matches plaintext URLs made only of characters RFC 3986
// allows: unreserved, sub-delims, gen-delims and percent-encoded octets.
var candidateURL = regexp.MustCompile(`http://(?:[A-Za-z0-9\-._~!$&'()*+,;=:/?#\[\]@]|%[0-9A-Fa-f]{2})+`)

// Extract returns every candidate http:// URL in line, in order.
func Extract(line string) []string {
	return candidateURL.FindAllString(line, -1)
}
