// Package local provides the Pebble-backed embedded ItemStore.
//
// Key layout:
//
//	item/<object id hex>  -> BSON-encoded storage.Document
//	name/<folded name>    -> object id hex
//
// The name/ keys form the unique index on the folded item name.
package local

const (
	itemPrefix = "item/"
	namePrefix = "name/"
)

func itemKey(id string) []byte {
	return []byte(itemPrefix + id)
}

func nameKey(folded string) []byte {
	return []byte(namePrefix + folded)
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix string) []byte {
	end := []byte(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
