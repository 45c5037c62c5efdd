package auth

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

// ParseRole accepts only the known roles; anything else is reported as not ok.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleTeacher:
		return RoleTeacher, true
	default:
		return "", false
	}
}

type Capability string

const (
	CapReviewAbsences    Capability = "review_absences"
	CapSendNotifications Capability = "send_notifications"
	CapReadAdminInbox    Capability = "read_admin_inbox"
	CapReadTeacherInbox  Capability = "read_teacher_inbox"
	CapUpdatePhone       Capability = "update_phone"
	CapViewStudentCount  Capability = "view_student_count"
)

var grants = map[Role][]Capability{
	RoleAdmin: {
		CapReviewAbsences,
		CapSendNotifications,
		CapReadAdminInbox,
		CapUpdatePhone,
	},
	RoleTeacher: {
		CapReadTeacherInbox,
		CapViewStudentCount,
	},
}

// Can is the only capability check; handlers never compare role strings.
func Can(role Role, c Capability) bool {
	for _, g := range grants[role] {
		if g == c {
			return true
		}
	}
	return false
}
