// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"

	"envrun-cli/pkg/envfile"
)

// BuildRegistry creates a registry with the native and virtual runtimes and
// selects defaultMode for environments that do not name a runtime. An empty
// mode keeps native as the default.
func BuildRegistry(defaultMode envfile.RuntimeMode) (*Registry, error) {
	if ok, errs := defaultMode.IsValid(); !ok {
		return nil, fmt.Errorf("default runtime: %w", errs[0])
	}

	reg := NewRegistry()
	reg.Register(RuntimeTypeNative, NewNativeRuntime())
	reg.Register(RuntimeTypeVirtual, NewVirtualRuntime())
	if defaultMode != envfile.RuntimeDefault {
		reg.SetDefault(RuntimeType(defaultMode))
	}
	return reg, nil
}
