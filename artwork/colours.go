package artwork

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SerializableColours is a list of hex colour strings that stores itself
// as JSON in a sqlite text column.
type SerializableColours []string

func (sc SerializableColours) Value() (driver.Value, error) {
	return json.Marshal(sc)
}

func (sc *SerializableColours) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*sc = SerializableColours{}
		return nil
	case []byte:
		return json.Unmarshal(v, sc)
	case string:
		return json.Unmarshal([]byte(v), sc)
	default:
		return fmt.Errorf("cannot scan %T into SerializableColours", src)
	}
}
