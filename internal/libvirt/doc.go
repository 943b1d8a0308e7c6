// Package libvirt provides a client wrapper for interacting with libvirt.
//
// This package wraps github.com/digitalocean/go-libvirt to provide
// connection management (connect, disconnect, ping) for the storage
// operations splice performs.
//
// Connection Management:
//
// The package establishes connections to the local libvirt daemon via Unix socket:
//
//	client, err := libvirt.Connect("", 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// Check connection
//	if err := client.Ping(); err != nil {
//	    return err
//	}
//
//	mgr := storage.NewManager(client.Libvirt())
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Instead, consumers
// (internal/storage) define their own LibvirtClient interfaces specifying
// only the operations they need. The *libvirt.Libvirt type satisfies these
// interfaces implicitly, enabling clean dependency injection.
//
// See internal/storage/manager.go for the consumer-side interface.
package libvirt
