// Package zones is the single directory of service zones known to the assistant.
package zones

import "strings"

type Zone struct {
	ID   string
	Name string
}

var known = []Zone{
	{ID: "11852150-1fe1-4d7a-ba57-84a31af92b55", Name: "Westchester"},
	{ID: "1091d1bd-b146-461c-bd33-eb25a5d95787", Name: "Manhattan"},
	{ID: "427917a2-e104-455f-8f29-36cef60a86c6", Name: "Brooklyn"},
	{ID: "efba1047-90d1-4f6f-a5c9-a4b40176e150", Name: "Queens"},
	{ID: "3668467f-3f94-4486-bcc1-cbb1aa16d015", Name: "Bronx"},
	{ID: "6f5a70ef-dc5c-4efa-83ca-efa1590873b7", Name: "Staten Island"},
}

// All returns a copy of the known zones in directory order.
func All() []Zone {
	out := make([]Zone, len(known))
	copy(out, known)
	return out
}

// NameFor never fails: ids outside the directory get a synthetic
// "Zone-<first 8 chars>" name.
func NameFor(id string) string {
	key := strings.ToLower(strings.TrimSpace(id))
	for _, z := range known {
		if z.ID == key {
			return z.Name
		}
	}
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "Zone-" + prefix
}

func IDFor(name string) (string, bool) {
	for _, z := range known {
		if strings.EqualFold(z.Name, strings.TrimSpace(name)) {
			return z.ID, true
		}
	}
	return "", false
}

func IsKnown(id string) bool {
	key := strings.ToLower(strings.TrimSpace(id))
	for _, z := range known {
		if z.ID == key {
			return true
		}
	}
	return false
}
