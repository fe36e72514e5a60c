package sequence

import "go.uber.org/fx"

// Module provides the sequence allocator to Fx.
var Module = fx.Provide(NewAllocator)
