package comparer

import (
	"encoding/json"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// PropertiesMap compara mapas de propriedades após normalização JSON,
// ignorando diferenças de tipo numérico que o roundtrip pelo JSONB
// introduz (int vira float64 na volta).
func PropertiesMap() cmp.Option {
	return cmp.Comparer(func(x, y map[string]any) bool {
		// Se ambos são nil ou vazios
		if len(x) == 0 && len(y) == 0 {
			return true
		}

		xJSON, err := json.Marshal(x)
		if err != nil {
			return false
		}

		yJSON, err := json.Marshal(y)
		if err != nil {
			return false
		}

		// Parse ambos para interface{} para comparação semântica
		var xObj, yObj interface{}

		if err := json.Unmarshal(xJSON, &xObj); err != nil {
			return false
		}

		if err := json.Unmarshal(yJSON, &yObj); err != nil {
			return false
		}

		return reflect.DeepEqual(xObj, yObj)
	})
}
