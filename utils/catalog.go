package utils

// CatalogEntry defines one item in the fixed shop price list. Resource is
// the inventory counter credited on purchase, Unit the amount credited.
type CatalogEntry struct {
	Key      string
	Name     string
	Resource string
	Unit     int
	Price    float64
}

var catalog = []CatalogEntry{
	{"ram", "1 GB RAM", "ram", 1, 1200},
	{"cpu", "25% CPU", "cpu", 25, 1500},
	{"disk", "1 GB Disk", "disk", 1, 400},
	{"slot", "Server Slot", "slots", 1, 2000},
	{"backup", "Backup Slot", "backups", 1, 600},
	{"port", "Extra Port", "ports", 1, 800},
}

// GetCatalogEntry looks up a shop entry by its key
func GetCatalogEntry(key string) (CatalogEntry, bool) {
	for _, entry := range catalog {
		if entry.Key == key {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}

// CatalogEntries returns the shop list in display order
func CatalogEntries() []CatalogEntry {
	entries := make([]CatalogEntry, len(catalog))
	copy(entries, catalog)
	return entries
}
