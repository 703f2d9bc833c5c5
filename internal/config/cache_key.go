package config

import "fmt"

// StorageKeyStruct names the three independent records kept in local storage.
type StorageKeyStruct struct {
	Catalog       string
	Attempts      string
	ActiveStudent string
}

// Namespaced prefixes a key for backends shared with other applications (Redis).
func (k *StorageKeyStruct) Namespaced(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return fmt.Sprintf("%s%s", prefix, key)
}

// StorageKey holds the persisted record keys. The names match the records
// written by earlier releases so existing data files keep loading.
var StorageKey = &StorageKeyStruct{
	Catalog:       "exams",
	Attempts:      "examAttempts",
	ActiveStudent: "currentStudent",
}
