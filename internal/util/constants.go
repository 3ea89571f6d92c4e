package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 上传相关常量
const (
	MimeZip         = "application/zip"
	MimeOctetStream = "application/octet-stream"

	ScormArchiveExt  = ".zip"
	ScormManifest    = "imsmanifest.xml"
	MaxPackageSize   = 500 * 1024 * 1024 // 500 MiB
	DefaultEntryFile = "index.html"
)

// 对象存储/解压目录布局
const (
	PackageObjectPrefix = "scorm_packages"
	ExtractDirName      = "scorm_extracted"
)
