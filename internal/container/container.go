package container

// DeviceStatus describes what is currently visible of a rule's device
type DeviceStatus struct {
	Rule       string `json:"rule"`
	Present    bool   `json:"present"`
	Unlocked   bool   `json:"unlocked"`
	Mounted    bool   `json:"mounted"`
	MountPoint string `json:"mount_point,omitempty"`
}
