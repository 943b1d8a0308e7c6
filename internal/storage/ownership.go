package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
)

// QEMUConfPath is where libvirt keeps the QEMU driver configuration.
const QEMUConfPath = "/etc/libvirt/qemu.conf"

// Ownership is the UID/GID written into pool and volume permissions.
type Ownership struct {
	UID string
	GID string
}

// DefaultOwnership is the Fedora/RHEL qemu user and group.
var DefaultOwnership = Ownership{UID: "107", GID: "107"}

// ResolveOwnership determines the user the QEMU process runs as, so that
// descriptor volumes stay readable by it.
//
// It tries, in order:
//  1. The user/group configured in confPath
//  2. Common user names (qemu, libvirt-qemu)
//  3. DefaultOwnership, returned together with an error
func ResolveOwnership(confPath string) (Ownership, error) {
	username, groupname := readQEMUConf(confPath)

	if username != "" {
		if u, err := user.Lookup(username); err == nil {
			o := Ownership{UID: u.Uid, GID: u.Gid}
			if groupname != "" {
				if g, err := user.LookupGroup(groupname); err == nil {
					o.GID = g.Gid
				}
			}
			return o, nil
		}
	}

	for _, name := range []string{"qemu", "libvirt-qemu"} {
		if u, err := user.Lookup(name); err == nil {
			return Ownership{UID: u.Uid, GID: u.Gid}, nil
		}
	}

	return DefaultOwnership, fmt.Errorf("could not determine QEMU user/group, using fallback UID/GID %s", DefaultOwnership.UID)
}

func readQEMUConf(path string) (username, groupname string) {
	file, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer func() { _ = file.Close() }()

	return parseQEMUConf(file)
}

// parseQEMUConf extracts the user and group settings from qemu.conf content.
// Returns empty strings for settings that are absent.
func parseQEMUConf(r io.Reader) (username, groupname string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "\"'")

		switch strings.TrimSpace(key) {
		case "user":
			username = value
		case "group":
			groupname = value
		}
	}

	return username, groupname
}
