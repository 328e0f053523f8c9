package formcache

// Snapshot records what a rendered form contained: the data field names
// present in its model and the action-only field names.
type Snapshot struct {
	DataFields    []string `json:"model"`
	NonDataFields []string `json:"non_data_fields"`
}

// Allows reports whether name was offered as a data field.
func (s Snapshot) Allows(name string) bool {
	for _, f := range s.DataFields {
		if f == name {
			return true
		}
	}
	return false
}
