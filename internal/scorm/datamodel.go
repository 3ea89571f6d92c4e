package scorm

// SCORM 1.2 CMI 数据模型元素名
const (
	ElemLessonStatus    = "cmi.core.lesson_status"
	ElemScoreRaw        = "cmi.core.score.raw"
	ElemScoreMin        = "cmi.core.score.min"
	ElemScoreMax        = "cmi.core.score.max"
	ElemScoreScaled     = "cmi.core.score.scaled"
	ElemLessonLocation  = "cmi.core.lesson_location"
	ElemCredit          = "cmi.core.credit"
	ElemEntry           = "cmi.core.entry"
	ElemExit            = "cmi.core.exit"
	ElemTotalTime       = "cmi.core.total_time"
	ElemSessionTime     = "cmi.core.session_time"
	ElemStudentID       = "cmi.core.student_id"
	ElemStudentName     = "cmi.core.student_name"
	ElemVersion         = "cmi.core._version"
	ElemSuspendData     = "cmi.suspend_data"
	ElemLaunchData      = "cmi.launch_data"
	ElemComments        = "cmi.comments"
	ElemCommentsFromLMS = "cmi.comments_from_lms"

	PrefixInteractions = "cmi.interactions."
	PrefixObjectives   = "cmi.objectives."

	ElemInteractionsCount = "cmi.interactions._count"
	ElemObjectivesCount   = "cmi.objectives._count"
)

// CMIVersion cmi.core._version 返回的固定协议版本串
const CMIVersion = "3.4"

const (
	MaxLessonLocationLen = 255
	MaxExitLen           = 20
)
