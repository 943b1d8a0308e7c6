// Package concat assembles composite volumes out of storage devices that
// register asynchronously and in any order.
//
// A Coordinator owns a pending group registry. Devices are offered to it one
// at a time with OnDeviceRegistered; when the last member of a declared group
// arrives the coordinator names the composite, builds it with a Builder,
// parents it to its first member's parent and publishes it with a Publisher.
//
// Error Handling:
//
// Failures are local to one group. A group whose composite cannot be built or
// published is abandoned; a composite that was built but could not be
// published is destroyed and its members are released before the error is
// returned. Nothing is retried.
//
// Teardown withdraws every published volume before releasing pending groups.
// It never fails: errors from individual cleanup steps are logged and
// teardown carries on.
//
// Concurrency:
//
// All entry points are serialized by a single lock, so a Coordinator may be
// shared by concurrent device registration callbacks.
package concat
