package camera

import (
	"encoding/xml"
	"strings"
)

// xmlNode is a generic XML element. The camera's responses use
// arbitrary, model-specific tag names, so they are parsed into this
// shape and interpreted afterwards.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

// attr returns the value of the named attribute.
func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// flattenXML recursively collects the text leaves of an XML tree into
// flat maps. A leaf writes its tag/text pair into the map of its
// parent; every element that accumulated pairs contributes one map to
// the result. The camera uses this shape both for single records
// (get_caminfo) and for record lists (camprop desclists).
func flattenXML(n *xmlNode, parent map[string]string) []map[string]string {
	if text := strings.TrimSpace(n.Text); text != "" {
		parent[n.XMLName.Local] = text
		return nil
	}

	var results []map[string]string
	params := make(map[string]string)
	for i := range n.Children {
		results = append(results, flattenXML(&n.Children[i], params)...)
	}
	if len(params) > 0 {
		results = append(results, params)
	}
	return results
}

// parseXMLRecords parses an XML document into a list of flat
// string maps. Documents whose leaves all sit directly under the root
// yield a single map.
func parseXMLRecords(body []byte) ([]map[string]string, error) {
	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, err
	}

	top := make(map[string]string)
	records := flattenXML(&root, top)
	if len(records) == 0 && len(top) > 0 {
		records = []map[string]string{top}
	}
	return records, nil
}
