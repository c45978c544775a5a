package storage

import "fmt"

// Имена таблиц локального кэша
const (
	TableJobdesks     = "jobdesks"
	TableTodos        = "todos"
	TableUsers        = "users"
	TableDailyLogs    = "daily_logs"
	TableChatMessages = "chat_messages"
	TableAttachments  = "attachments"
	TableProfile      = "profile"
)

// IndexSchema declares a secondary lookup index on one record attribute.
// A MultiEntry index on an array attribute indexes every element.
type IndexSchema struct {
	Name       string
	Attribute  string
	MultiEntry bool
}

// TableSchema declares a record table and its indexes.
type TableSchema struct {
	Name    string
	Indexes []IndexSchema
}

// Index returns the declared index by name.
func (t TableSchema) Index(name string) (IndexSchema, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSchema{}, false
}

// Schema is the versioned set of tables. It is fixed at build time; bumping
// Version makes the next open create any newly declared tables and indexes.
type Schema struct {
	Tables  []TableSchema
	Version int
}

// Table returns the declared table by name.
func (s Schema) Table(name string) (TableSchema, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}

// Validate checks that names are unique and non-empty.
func (s Schema) Validate() error {
	if s.Version < 1 {
		return fmt.Errorf("schema version must be positive, got %d", s.Version)
	}
	seen := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("table name cannot be empty")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate table %q", t.Name)
		}
		seen[t.Name] = true

		idxSeen := make(map[string]bool, len(t.Indexes))
		for _, idx := range t.Indexes {
			if idx.Name == "" || idx.Attribute == "" {
				return fmt.Errorf("table %q: index name and attribute are required", t.Name)
			}
			if idxSeen[idx.Name] {
				return fmt.Errorf("table %q: duplicate index %q", t.Name, idx.Name)
			}
			idxSeen[idx.Name] = true
		}
	}
	return nil
}

func index(name string) IndexSchema {
	return IndexSchema{Name: name, Attribute: name}
}

// DefaultSchema is the dashboard's local cache layout.
var DefaultSchema = Schema{
	Version: 2,
	Tables: []TableSchema{
		{Name: TableJobdesks, Indexes: []IndexSchema{
			index("status"),
			{Name: "assignedTo", Attribute: "assignedTo", MultiEntry: true},
		}},
		{Name: TableTodos, Indexes: []IndexSchema{index("status"), index("userId")}},
		{Name: TableUsers, Indexes: []IndexSchema{index("role")}},
		{Name: TableDailyLogs, Indexes: []IndexSchema{index("userId"), index("date")}},
		{Name: TableChatMessages, Indexes: []IndexSchema{index("roomId"), index("timestamp")}},
		{Name: TableAttachments, Indexes: []IndexSchema{index("jobdeskId"), index("userId")}},
		{Name: TableProfile},
	},
}
