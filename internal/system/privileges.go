package system

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// IsRoot checks if running as root
func IsRoot() bool {
	return os.Geteuid() == 0
}

// Identity is a resolved numeric account identity
type Identity struct {
	Name string
	UID  uint32
	GID  uint32
}

// IdentityResolver maps an account name to its numeric identity
type IdentityResolver interface {
	LookupUser(name string) (Identity, error)
}

// OwnershipSetter transfers ownership of a path
type OwnershipSetter interface {
	Chown(path string, uid, gid uint32) error
}

// OSIdentities resolves accounts through the system user database
type OSIdentities struct{}

// LookupUser resolves name to its uid and primary gid
func (OSIdentities) LookupUser(name string) (Identity, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return Identity{}, err
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid uid %q for %s: %w", u.Uid, name, err)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid gid %q for %s: %w", u.Gid, name, err)
	}
	return Identity{Name: name, UID: uint32(uid), GID: uint32(gid)}, nil
}

// OSOwnership changes ownership with chown(2)
type OSOwnership struct{}

// Chown changes the owner of path
func (OSOwnership) Chown(path string, uid, gid uint32) error {
	return os.Chown(path, int(uid), int(gid))
}
