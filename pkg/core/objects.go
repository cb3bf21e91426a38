package core

import (
	"github.com/icinga/icinga-livestatus/pkg/attributes"
	"time"
)

// Host is a host object of the monitoring core's configuration.
// Pointers to core objects serve as handles, i.e. object identity is pointer identity.
type Host struct {
	Name            string
	Alias           string
	Address         string
	DisplayName     string
	CheckCommand    string
	Parents         []*Host
	Contacts        []*Contact
	ContactGroups   []*ContactGroup
	CustomVariables []attributes.Variable
}

// Service is a service object of the monitoring core's configuration.
type Service struct {
	Host            *Host
	Description     string
	DisplayName     string
	CheckCommand    string
	Contacts        []*Contact
	ContactGroups   []*ContactGroup
	CustomVariables []attributes.Variable
}

type HostGroup struct {
	Name    string
	Alias   string
	Members []*Host
}

type ServiceGroup struct {
	Name    string
	Alias   string
	Members []*Service
}

// Contact is a user to be notified.
type Contact struct {
	Name            string
	Alias           string
	Email           string
	Pager           string
	CustomVariables []attributes.Variable
}

type ContactGroup struct {
	Name    string
	Alias   string
	Members []*Contact
}

// CommentEntryType distinguishes the origin of a Comment.
type CommentEntryType uint8

const (
	UserComment CommentEntryType = iota + 1
	DowntimeComment
	FlappingComment
	AcknowledgementComment
)

// Comment is attached to a host or, if Service is not nil, to a service of Host.
type Comment struct {
	ID         uint64
	Host       *Host
	Service    *Service
	Author     string
	Text       string
	EntryType  CommentEntryType
	EntryTime  time.Time
	Persistent bool
	ExpireTime time.Time
}

// Downtime is scheduled for a host or, if Service is not nil, for a service of Host.
type Downtime struct {
	ID          uint64
	Host        *Host
	Service     *Service
	Author      string
	Comment     string
	EntryTime   time.Time
	StartTime   time.Time
	EndTime     time.Time
	Fixed       bool
	Duration    time.Duration
	TriggeredBy uint64
}
