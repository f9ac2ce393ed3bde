package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONBlob is an opaque structured payload stored as jsonb. It is used
// for the raw distributor response cached by CacheEntry, which this
// service never needs to index on — only round-trip.
type JSONBlob json.RawMessage

// Value implements driver.Valuer.
func (j JSONBlob) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONBlob) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = JSONBlob(v)
		return nil
	default:
		return fmt.Errorf("models: cannot scan %T into JSONBlob", src)
	}
}

// Raw returns the blob as json.RawMessage for unmarshalling.
func (j JSONBlob) Raw() json.RawMessage {
	return json.RawMessage(j)
}

// GormDataType tells GORM how to type this column across dialects.
func (JSONBlob) GormDataType() string {
	return "jsonb"
}
