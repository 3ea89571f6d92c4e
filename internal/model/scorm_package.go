package model

type ScormVersion string

const (
	Scorm12   ScormVersion = "1.2"
	Scorm2004 ScormVersion = "2004"
)

type PackageStatus string

const (
	PackagePending    PackageStatus = "pending"
	PackageProcessing PackageStatus = "processing"
	PackageReady      PackageStatus = "ready"
	PackageError      PackageStatus = "error"
)

// ScormPackage 上传的 SCORM 课件包
// EntryPoint / ExtractedPath 仅在 Status == ready 时有值
// swagger:model ScormPackage
type ScormPackage struct {
	BaseModel
	CourseID    uint         `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Course      *Course      `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Slug        string       `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	Version     ScormVersion `gorm:"type:varchar(10);default:'1.2'" json:"version"`

	// 文件与解压结果
	PackageFile   string        `gorm:"size:500" json:"packageFile"` // 对象存储键
	ExtractedPath string        `gorm:"size:500" json:"extractedPath"`
	EntryPoint    string        `gorm:"size:255" json:"entryPoint"`
	ManifestData  string        `gorm:"type:json" json:"manifestData"`
	Status        PackageStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ErrorMessage  string        `gorm:"type:text" json:"errorMessage"`

	// 设置项（仅允许管理员在上传后修改）
	AllowMultipleAttempts bool    `gorm:"default:true" json:"allowMultipleAttempts"`
	PassingScore          int     `gorm:"default:70" json:"passingScore"`  // 及格线（百分比）
	WeightInCourse        float64 `gorm:"default:0" json:"weightInCourse"` // 在课程总评中的权重（0-100%）

	UploadedByID uint  `gorm:"index;type:bigint unsigned" json:"uploadedById"`
	UploadedBy   *User `gorm:"foreignKey:UploadedByID" json:"uploadedBy,omitempty"`

	Attempts []ScormAttempt `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ScormPackage) TableName() string {
	return "scorm_packages"
}

func (p *ScormPackage) IsLaunchable() bool {
	return p.Status == PackageReady && p.EntryPoint != "" && p.ExtractedPath != ""
}
