package models

type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleSchool  Role = "school"
)

// Session — явная дискриминированная запись "кто действует".
// Аутентификации нет: ядро доверяет тому, что передал презентационный слой.
type Session struct {
	Role       Role
	StudentID  string // role=student
	ParentID   string // role=parent
	SchoolName string // role=school
}

func StudentSession(studentID string) Session {
	return Session{Role: RoleStudent, StudentID: studentID}
}

func ParentSession(parentID string) Session {
	return Session{Role: RoleParent, ParentID: parentID}
}

func SchoolSession(schoolName string) Session {
	return Session{Role: RoleSchool, SchoolName: schoolName}
}
