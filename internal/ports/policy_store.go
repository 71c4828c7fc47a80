package ports

import (
	"github.com/mikey/linkguard/internal/core"
)

// PolicyStore is a PolicyRepository backed by an external resource
type PolicyStore interface {
	core.PolicyRepository

	// Stop releases the underlying connection
	Stop()
}
