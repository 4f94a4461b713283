package agent

import (
	"fmt"
	"reflect"

	"github.com/samuelfneumann/goskip/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of agent that the Config describes
	Type() Type
}

// PolicyType represents a type of distribution that a policy could be
type PolicyType string

const (
	Categorical PolicyType = "Softmax"
	EGreedy     PolicyType = "EGreedy"
)

// ConfigList represents a list of Config's sharing a concrete type,
// stored as the cross product of hyperparameter settings. Instead of
// storing each Config separately, a ConfigList stores a slice of
// settings per hyperparameter, and individual Config's are
// materialized by indexing into the cross product with ConfigAt.
type ConfigList interface {
	// Type returns the type of Config stored in the list
	Type() Type

	// Config returns an empty Config of the same type as that stored
	// by the ConfigList
	Config() Config

	// Len returns the number of Config's in the list
	Len() int

	// NumFields returns the number of settable fields in a Config
	NumFields() int
}

// ConfigAt returns the Config at index i of the cross product of
// hyperparameter settings held by list. Fields of the ConfigList must
// be slices whose names match the corresponding fields of the Config;
// the field declared first varies fastest along the cross product.
func ConfigAt(i int, list ConfigList) Config {
	if i < 0 || i >= list.Len() {
		panic(fmt.Sprintf("configAt: index out of range [%v] with length %v",
			i, list.Len()))
	}

	listValue := reflect.ValueOf(list)
	listType := listValue.Type()

	config := reflect.New(reflect.TypeOf(list.Config())).Elem()

	divisor := 1
	for j := 0; j < listValue.NumField(); j++ {
		settings := listValue.Field(j)
		if settings.Kind() != reflect.Slice || settings.Len() == 0 {
			continue
		}

		field := config.FieldByName(listType.Field(j).Name)
		if !field.IsValid() || !field.CanSet() {
			continue
		}

		index := (i / divisor) % settings.Len()
		divisor *= settings.Len()
		field.Set(settings.Index(index))
	}

	return config.Interface().(Config)
}
