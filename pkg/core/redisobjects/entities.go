package redisobjects

// Redis hashes Icinga 2 writes its objects to, keyed by object ID.
// Values are JSON objects of the types below.
const (
	keyHost                  = "icinga:host"
	keyService               = "icinga:service"
	keyHostGroup             = "icinga:hostgroup"
	keyHostGroupMember       = "icinga:hostgroup:member"
	keyServiceGroup          = "icinga:servicegroup"
	keyServiceGroupMember    = "icinga:servicegroup:member"
	keyUser                  = "icinga:user"
	keyUserGroup             = "icinga:usergroup"
	keyUserGroupMember       = "icinga:usergroup:member"
	keyCustomvar             = "icinga:customvar"
	keyHostCustomvar         = "icinga:host:customvar"
	keyServiceCustomvar      = "icinga:service:customvar"
	keyUserCustomvar         = "icinga:user:customvar"
	keyComment               = "icinga:comment"
	keyDowntime              = "icinga:downtime"
	keyNotificationUser      = "icinga:notification:user"
	keyNotificationUsergroup = "icinga:notification:usergroup"
	keyNotification          = "icinga:notification"
)

// objectKeys are the hashes a snapshot of the object graph is built from.
var objectKeys = []string{
	keyHost, keyService,
	keyHostGroup, keyHostGroupMember,
	keyServiceGroup, keyServiceGroupMember,
	keyUser, keyUserGroup, keyUserGroupMember,
	keyCustomvar, keyHostCustomvar, keyServiceCustomvar, keyUserCustomvar,
	keyNotification, keyNotificationUser, keyNotificationUsergroup,
}

// retentionKeys are the hashes comments and downtimes are loaded from.
var retentionKeys = []string{keyHost, keyService, keyComment, keyDowntime}

type checkable struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Checkcommand string `json:"checkcommand"`
}

type hostEntity struct {
	checkable
	Address string `json:"address"`
}

type serviceEntity struct {
	checkable
	HostId string `json:"host_id"`
}

type groupEntity struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type memberEntity struct {
	HostId         string `json:"host_id"`
	HostgroupId    string `json:"hostgroup_id"`
	ServiceId      string `json:"service_id"`
	ServicegroupId string `json:"servicegroup_id"`
	UserId         string `json:"user_id"`
	UsergroupId    string `json:"usergroup_id"`
}

type userEntity struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Pager       string `json:"pager"`
}

type customvarEntity struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// objectCustomvar assigns a custom variable to a host, service or user.
type objectCustomvar struct {
	ObjectId    string `json:"object_id"`
	HostId      string `json:"host_id"`
	ServiceId   string `json:"service_id"`
	UserId      string `json:"user_id"`
	CustomvarId string `json:"customvar_id"`
}

func (cv objectCustomvar) objectId() string {
	for _, id := range []string{cv.ObjectId, cv.HostId, cv.ServiceId, cv.UserId} {
		if id != "" {
			return id
		}
	}

	return ""
}

type notificationEntity struct {
	HostId    string `json:"host_id"`
	ServiceId string `json:"service_id"`
}

type notificationRecipient struct {
	NotificationId string `json:"notification_id"`
	UserId         string `json:"user_id"`
	UsergroupId    string `json:"usergroup_id"`
}

// Times are Unix timestamps in milliseconds.
type commentEntity struct {
	ObjectType   string `json:"object_type"`
	HostId       string `json:"host_id"`
	ServiceId    string `json:"service_id"`
	Author       string `json:"author"`
	Text         string `json:"text"`
	EntryType    string `json:"entry_type"`
	EntryTime    int64  `json:"entry_time"`
	IsPersistent bool   `json:"is_persistent"`
	ExpireTime   int64  `json:"expire_time"`
}

type downtimeEntity struct {
	ObjectType         string `json:"object_type"`
	HostId             string `json:"host_id"`
	ServiceId          string `json:"service_id"`
	TriggeredById      string `json:"triggered_by_id"`
	Author             string `json:"author"`
	Comment            string `json:"comment"`
	EntryTime          int64  `json:"entry_time"`
	ScheduledStartTime int64  `json:"scheduled_start_time"`
	ScheduledEndTime   int64  `json:"scheduled_end_time"`
	IsFlexible         bool   `json:"is_flexible"`
	FlexibleDuration   int64  `json:"flexible_duration"`
}
