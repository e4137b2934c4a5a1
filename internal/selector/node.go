package selector

import (
	"fmt"
	"strings"
	"unicode"
)

// A node is one level of a structural selector path
type node struct {
	tagName       string
	classes       []string
	pseudoClasses []string
}

// string returns a string representation of the node
func (n node) string() string {
	nodeString := n.tagName
	for _, cl := range n.classes {
		nodeString += "." + escapeClass(cl)
	}
	if len(n.pseudoClasses) > 0 {
		nodeString += fmt.Sprintf(":%s", strings.Join(n.pseudoClasses, ":"))
	}
	return nodeString
}

// A path is a list of nodes starting at some ancestor and going down
// the html tree to a specific node
type path []node

// string returns a string representation of the path
func (p path) string() string {
	nodeStrings := []string{}
	for _, n := range p {
		nodeStrings = append(nodeStrings, n.string())
	}
	return strings.Join(nodeStrings, " > ")
}

// escapeClass escapes characters that would otherwise end a class selector
func escapeClass(cl string) string {
	if cl == "" {
		return cl
	}
	// https://www.itsupportguides.com/knowledge-base/website-tips/css-colon-in-id/
	cl = strings.ReplaceAll(cl, `\`, `\\`)
	cl = strings.ReplaceAll(cl, ":", "\\:")
	cl = strings.ReplaceAll(cl, ">", "\\>")
	cl = strings.ReplaceAll(cl, "[", "\\[")
	cl = strings.ReplaceAll(cl, "]", "\\]")
	cl = strings.ReplaceAll(cl, "/", "\\/")
	cl = strings.ReplaceAll(cl, "!", "\\!")
	cl = strings.ReplaceAll(cl, "%", "\\%")
	cl = strings.ReplaceAll(cl, ".", "\\.")
	cl = strings.ReplaceAll(cl, "'", "\\'")
	cl = strings.ReplaceAll(cl, `"`, `\"`)
	// https://stackoverflow.com/questions/45293534/css-class-starting-with-number-is-not-getting-applied
	if unicode.IsDigit(rune(cl[0])) {
		cl = fmt.Sprintf(`\3%c %s`, cl[0], cl[1:])
	}
	return cl
}

// quoteAttrValue returns v as a double quoted css string
func quoteAttrValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "\n", `\a `)
	return `"` + v + `"`
}
