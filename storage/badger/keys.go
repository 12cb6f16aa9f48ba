package badger

import "fmt"

// Key prefixes for different data types
const (
	versionPrefix     = "docver"
	versionHashPrefix = "docverh"
	versionDocPrefix  = "docverd"
	documentPrefix    = "docrec"
	snapshotKey       = "progsnap"
)

// makeVersionKey generates a key for a version record by ID.
func makeVersionKey(versionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", versionPrefix, versionID))
}

// makeVersionHashKey generates a key for the content-hash index.
// Format: prefix:contentHash
func makeVersionHashKey(contentHash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", versionHashPrefix, contentHash))
}

// makeVersionDocKey generates a composite key for the per-document index.
// Format: prefix:documentID:versionID
func makeVersionDocKey(documentID, versionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", versionDocPrefix, documentID, versionID))
}

// makeVersionDocScanPrefix generates the iteration prefix for all versions
// of a document.
func makeVersionDocScanPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", versionDocPrefix, documentID))
}

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, documentID))
}
