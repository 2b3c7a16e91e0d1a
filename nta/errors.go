package nta

import (
	"fmt"
	"slices"
	"strings"
)

// ModelDocumentError reports a model document that lacks an element an
// operation needs, or whose content cannot be interpreted.
type ModelDocumentError struct {
	Element string
	Reason  string
}

func (e *ModelDocumentError) Error() string {
	return fmt.Sprintf("model document: %s: %s", e.Element, e.Reason)
}

// IDCollisionError reports location ids of a new template that are already
// used by other templates of the document.
type IDCollisionError struct {
	Template string
	IDs      []int
}

func (e *IDCollisionError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range slices.Sorted(slices.Values(e.IDs)) {
		ids[i] = fmt.Sprintf("id%d", id)
	}
	return fmt.Sprintf("template %s reuses location ids %s", e.Template, strings.Join(ids, ", "))
}
