package model

// Course 课程（外部实体，SCORM 包挂靠在课程下）
// swagger:model Course
type Course struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Code        string `gorm:"size:50;uniqueIndex" json:"code"`
	Description string `gorm:"type:text" json:"description"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseEnrollment 选课关系，用于访问控制
type CourseEnrollment struct {
	BaseModel
	CourseID uint `gorm:"index:idx_course_user,unique;type:bigint unsigned" json:"courseId"`
	UserID   uint `gorm:"index:idx_course_user,unique;type:bigint unsigned" json:"userId"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
