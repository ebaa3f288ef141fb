// Package domain contains the harness model: calls and their normalized results,
// scenario state shared across steps, step outcomes and the run configuration.
//
// The domain does not depend on net/http transport details, YAML parsing or the
// filesystem. Infra/adapters map into/from these types.
package domain
