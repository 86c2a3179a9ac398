// Package catalog maps task keywords to named rule documents.
//
// The rule text itself is an external concern: wardend only needs the
// keyword index and a way to fetch document bodies. StaticCatalog carries
// the index plus placeholder bodies so the daemon runs standalone; a
// deployment can swap in a Catalog backed by the real document source.
package catalog

// Catalog resolves keywords to rule documents and returns their bodies.
type Catalog interface {
	// Lookup returns the document names registered for a keyword.
	// The keyword is matched exactly against the index; callers do
	// substring extraction themselves (see ExtractKeywords).
	Lookup(keyword string) []string

	// Document returns a document body by name.
	Document(name string) (string, bool)

	// CoreDocument returns the core rules document, always present.
	CoreDocument() (name string, body string)
}

// StaticCatalog is the built-in catalog backed by the tables in this package.
type StaticCatalog struct {
	documents map[string]string
}

// NewStatic creates a catalog with the built-in keyword index and
// placeholder document bodies.
func NewStatic() *StaticCatalog {
	docs := make(map[string]string, len(documentNames)+1)
	for _, name := range documentNames {
		docs[name] = "# " + name + "\n\nRules for " + name + ".\n"
	}
	docs[coreDocumentName] = coreDocumentBody
	return &StaticCatalog{documents: docs}
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(keyword string) []string {
	docs := keywordIndex[keyword]
	out := make([]string, len(docs))
	copy(out, docs)
	return out
}

// Document implements Catalog.
func (c *StaticCatalog) Document(name string) (string, bool) {
	body, ok := c.documents[name]
	return body, ok
}

// CoreDocument implements Catalog.
func (c *StaticCatalog) CoreDocument() (string, string) {
	return coreDocumentName, c.documents[coreDocumentName]
}
