package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/scorm"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RuntimeService SCORM 运行时数据模型桥。
// GetValue/SetValue 操作暂存层，Commit/Finish 在单个事务里把暂存
// 整批落到 attempt 行上（读-改-写），并按索引倒入交互与目标表。
type RuntimeService struct {
	AttemptRepo *repository.AttemptRepository
	State       StateStore
	DB          *gorm.DB
}

func NewRuntimeService(attemptRepo *repository.AttemptRepository, state StateStore, db *gorm.DB) *RuntimeService {
	return &RuntimeService{
		AttemptRepo: attemptRepo,
		State:       state,
		DB:          db,
	}
}

// GetValue 读取元素值。未提交的 set 覆盖已持久化的值；
// 未知元素一律返回空串，从不报错。
func (s *RuntimeService) GetValue(ctx context.Context, attempt *model.ScormAttempt, element string) string {
	if staged, ok, err := s.State.StagedValue(ctx, attempt.ID, element); err == nil && ok {
		return staged
	}

	switch element {
	case scorm.ElemLessonStatus:
		return string(attempt.LessonStatus)
	case scorm.ElemScoreRaw:
		if attempt.ScoreRaw == nil {
			return ""
		}
		return util.FormatFloat(*attempt.ScoreRaw)
	case scorm.ElemScoreMin:
		return util.FormatFloat(attempt.ScoreMin)
	case scorm.ElemScoreMax:
		return util.FormatFloat(attempt.ScoreMax)
	case scorm.ElemScoreScaled:
		if attempt.ScoreScaled == nil {
			return ""
		}
		return util.FormatFloat(*attempt.ScoreScaled)
	case scorm.ElemLessonLocation:
		return attempt.LessonLocation
	case scorm.ElemCredit:
		return attempt.Credit
	case scorm.ElemEntry:
		return attempt.Entry
	case scorm.ElemExit:
		return attempt.ExitMode
	case scorm.ElemTotalTime:
		return scorm.FormatCMITime(attempt.TotalTimeSecs)
	case scorm.ElemSessionTime:
		return scorm.FormatCMITime(attempt.SessionTimeSecs)
	case scorm.ElemSuspendData:
		return attempt.SuspendData
	case scorm.ElemStudentID:
		return strconv.FormatUint(uint64(attempt.UserID), 10)
	case scorm.ElemStudentName:
		if attempt.User != nil {
			return attempt.User.FullName()
		}
		return ""
	case scorm.ElemVersion:
		return scorm.CMIVersion
	case scorm.ElemLaunchData, scorm.ElemComments, scorm.ElemCommentsFromLMS:
		return ""
	case scorm.ElemInteractionsCount:
		return strconv.FormatInt(s.collectionCount(ctx, attempt.ID, scorm.PrefixInteractions), 10)
	case scorm.ElemObjectivesCount:
		return strconv.FormatInt(s.collectionCount(ctx, attempt.ID, scorm.PrefixObjectives), 10)
	}

	if strings.HasPrefix(element, scorm.PrefixInteractions) || strings.HasPrefix(element, scorm.PrefixObjectives) {
		return s.indexedValue(attempt.ID, element)
	}

	return ""
}

// indexedValue 从已落库的交互/目标行里读子元素，提交过的写入重进课件后可回读
func (s *RuntimeService) indexedValue(attemptID uint, element string) string {
	idx, field, ok := splitIndexed(element)
	if !ok {
		return ""
	}

	if strings.HasPrefix(element, scorm.PrefixInteractions) {
		row, err := s.AttemptRepo.FindInteraction(attemptID, idx)
		if err != nil {
			return ""
		}
		return interactionField(row, field)
	}

	row, err := s.AttemptRepo.FindObjective(attemptID, idx)
	if err != nil {
		return ""
	}
	return objectiveField(row, field)
}

func interactionField(row *model.ScormInteraction, field string) string {
	switch {
	case field == "id":
		return row.InteractionID
	case field == "type":
		return string(row.Type)
	case field == "result":
		return string(row.Result)
	case field == "student_response" || field == "learner_response":
		return row.LearnerResponse
	case field == "weighting":
		return util.FormatFloat(row.Weighting)
	case field == "latency":
		return scorm.FormatCMITime(row.LatencySecs)
	case field == "time":
		return row.Timestamp.Format("15:04:05")
	case field == "description":
		return row.Description
	case strings.HasPrefix(field, "correct_responses."):
		if sub, ok := subIndex(field, "correct_responses."); ok {
			return jsonListItem(row.CorrectResponses, sub)
		}
	case strings.HasPrefix(field, "objectives."):
		if sub, ok := subIndex(field, "objectives."); ok {
			return jsonListItem(row.Objectives, sub)
		}
	}
	return ""
}

func objectiveField(row *model.ScormObjective, field string) string {
	switch field {
	case "id":
		return row.ObjectiveID
	case "status", "completion_status":
		return string(row.CompletionStatus)
	case "success_status":
		return string(row.SuccessStatus)
	case "score.raw":
		if row.ScoreRaw == nil {
			return ""
		}
		return util.FormatFloat(*row.ScoreRaw)
	case "score.min":
		return util.FormatFloat(row.ScoreMin)
	case "score.max":
		return util.FormatFloat(row.ScoreMax)
	case "score.scaled":
		if row.ScoreScaled == nil {
			return ""
		}
		return util.FormatFloat(*row.ScoreScaled)
	case "progress_measure":
		return util.FormatFloat(row.ProgressMeasure)
	case "description":
		return row.Description
	}
	return ""
}

// jsonListItem 子元素列表按 marshalOrdered 存成 JSON 数组，这里取第 idx 项
func jsonListItem(raw string, idx int) string {
	if raw == "" {
		return ""
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return ""
	}
	if idx < 0 || idx >= len(list) {
		return ""
	}
	return list[idx]
}

// SetValue 校验并暂存一个写入。只读元素与类型不合法的值返回 false；
// 未知元素宽容放行返回 true。持久化一律推迟到 Commit。
func (s *RuntimeService) SetValue(ctx context.Context, attempt *model.ScormAttempt, element, value string) bool {
	switch element {
	case scorm.ElemLessonStatus:
		// 非法枚举值拒绝而非静默吞掉
		if !model.ValidLessonStatus(value) {
			return false
		}
		return s.stage(ctx, attempt.ID, element, value)

	case scorm.ElemScoreRaw, scorm.ElemScoreMin, scorm.ElemScoreMax:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return false
		}
		return s.stage(ctx, attempt.ID, element, util.FormatFloat(f))

	case scorm.ElemLessonLocation:
		return s.stage(ctx, attempt.ID, element, truncate(value, scorm.MaxLessonLocationLen))

	case scorm.ElemExit:
		return s.stage(ctx, attempt.ID, element, truncate(value, scorm.MaxExitLen))

	case scorm.ElemSessionTime:
		if _, err := scorm.ParseCMITime(value); err != nil {
			return false
		}
		return s.stage(ctx, attempt.ID, element, value)

	case scorm.ElemSuspendData:
		return s.stage(ctx, attempt.ID, element, value)

	case scorm.ElemScoreScaled, scorm.ElemCredit, scorm.ElemEntry, scorm.ElemTotalTime,
		scorm.ElemStudentID, scorm.ElemStudentName, scorm.ElemVersion,
		scorm.ElemInteractionsCount, scorm.ElemObjectivesCount:
		// 只读元素
		return false
	}

	if strings.HasPrefix(element, scorm.PrefixInteractions) || strings.HasPrefix(element, scorm.PrefixObjectives) {
		if _, _, ok := splitIndexed(element); !ok {
			return false
		}
		return s.stage(ctx, attempt.ID, element, value)
	}

	// 未实现的元素宽容接受
	return true
}

// Commit 把暂存写入整批落库
func (s *RuntimeService) Commit(ctx context.Context, attempt *model.ScormAttempt) error {
	return s.commit(ctx, attempt, false)
}

// Finish 记录完成时间并落库；状态仍未定且有成绩时按及格线定 passed/failed
func (s *RuntimeService) Finish(ctx context.Context, attempt *model.ScormAttempt) error {
	return s.commit(ctx, attempt, true)
}

func (s *RuntimeService) stage(ctx context.Context, attemptID uint, element, value string) bool {
	if err := s.State.Stage(ctx, attemptID, element, value); err != nil {
		logger.Log.Error("failed to stage cmi value",
			zap.Uint("attempt", attemptID),
			zap.String("element", element),
			zap.Error(err))
		return false
	}
	return true
}

func (s *RuntimeService) commit(ctx context.Context, attempt *model.ScormAttempt, finishing bool) error {
	staged, err := s.State.Staged(ctx, attempt.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	var fresh model.ScormAttempt

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&fresh, attempt.ID).Error; err != nil {
			return err
		}

		for element, value := range staged {
			applyCoreElement(&fresh, element, value)
		}

		// session_time 累计进 total_time
		if raw, ok := staged[scorm.ElemSessionTime]; ok {
			if secs, err := scorm.ParseCMITime(raw); err == nil {
				fresh.SessionTimeSecs = secs
				fresh.TotalTimeSecs += secs
			}
		}

		if fresh.ScoreRaw != nil && fresh.ScoreMax != 0 {
			scaled := *fresh.ScoreRaw / fresh.ScoreMax
			fresh.ScoreScaled = &scaled
		} else {
			// score.max 被改成 0 时旧的 scaled 不能留着
			fresh.ScoreScaled = nil
		}

		fresh.LastAccessed = now

		if finishing {
			fresh.CompletedAt = &now
			if err := s.finalizeStatus(tx, &fresh); err != nil {
				return err
			}
		}

		if err := tx.Save(&fresh).Error; err != nil {
			return err
		}

		if err := s.upsertInteractions(tx, fresh.ID, groupIndexed(staged, scorm.PrefixInteractions), now); err != nil {
			return err
		}
		return s.upsertObjectives(tx, fresh.ID, groupIndexed(staged, scorm.PrefixObjectives))
	})
	if err != nil {
		return err
	}

	if err := s.State.Clear(ctx, attempt.ID); err != nil {
		logger.Log.Warn("failed to clear staged cmi state", zap.Uint("attempt", attempt.ID), zap.Error(err))
	}

	fresh.Package = attempt.Package
	fresh.User = attempt.User
	*attempt = fresh
	return nil
}

// finalizeStatus LMSFinish 时状态还停在中间态则按成绩与及格线收口
func (s *RuntimeService) finalizeStatus(tx *gorm.DB, attempt *model.ScormAttempt) error {
	switch attempt.LessonStatus {
	case model.LessonCompleted, model.LessonPassed, model.LessonFailed:
		return nil
	}
	if attempt.ScoreRaw == nil {
		if attempt.LessonStatus == model.LessonIncomplete {
			attempt.LessonStatus = model.LessonCompleted
		}
		return nil
	}

	var pkg model.ScormPackage
	if err := tx.First(&pkg, attempt.PackageID).Error; err != nil {
		return err
	}
	if attempt.IsPassed(pkg.PassingScore) {
		attempt.LessonStatus = model.LessonPassed
	} else {
		attempt.LessonStatus = model.LessonFailed
	}
	return nil
}

// applyCoreElement 把一个暂存的核心元素写到 attempt 字段上。
// 值在 SetValue 时已校验过，这里只做映射。
func applyCoreElement(a *model.ScormAttempt, element, value string) {
	switch element {
	case scorm.ElemLessonStatus:
		a.LessonStatus = model.LessonStatus(value)
	case scorm.ElemScoreRaw:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			a.ScoreRaw = &f
		}
	case scorm.ElemScoreMin:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			a.ScoreMin = f
		}
	case scorm.ElemScoreMax:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			a.ScoreMax = f
		}
	case scorm.ElemLessonLocation:
		a.LessonLocation = value
	case scorm.ElemExit:
		a.ExitMode = value
	case scorm.ElemSuspendData:
		a.SuspendData = value
	}
}

// collectionCount 持久化行数与暂存索引上界取大者
func (s *RuntimeService) collectionCount(ctx context.Context, attemptID uint, prefix string) int64 {
	var persisted int64
	var err error
	if prefix == scorm.PrefixInteractions {
		persisted, err = s.AttemptRepo.CountInteractions(attemptID)
	} else {
		persisted, err = s.AttemptRepo.CountObjectives(attemptID)
	}
	if err != nil {
		logger.Log.Error("failed to count collection", zap.Uint("attempt", attemptID), zap.Error(err))
		return 0
	}

	staged, err := s.State.Staged(ctx, attemptID)
	if err != nil {
		return persisted
	}
	for element := range staged {
		if !strings.HasPrefix(element, prefix) {
			continue
		}
		if idx, _, ok := splitIndexed(element); ok && int64(idx)+1 > persisted {
			persisted = int64(idx) + 1
		}
	}
	return persisted
}

// splitIndexed 解析 cmi.interactions.3.result 形态的元素名
func splitIndexed(element string) (index int, field string, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(element, scorm.PrefixInteractions):
		rest = element[len(scorm.PrefixInteractions):]
	case strings.HasPrefix(element, scorm.PrefixObjectives):
		rest = element[len(scorm.PrefixObjectives):]
	default:
		return 0, "", false
	}

	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil || idx < 0 {
		return 0, "", false
	}
	return idx, parts[1], true
}

// groupIndexed 把暂存键按索引聚合成 index -> field -> value
func groupIndexed(staged map[string]string, prefix string) map[int]map[string]string {
	out := make(map[int]map[string]string)
	for element, value := range staged {
		if !strings.HasPrefix(element, prefix) {
			continue
		}
		idx, field, ok := splitIndexed(element)
		if !ok {
			continue
		}
		if out[idx] == nil {
			out[idx] = make(map[string]string)
		}
		out[idx][field] = value
	}
	return out
}

func (s *RuntimeService) upsertInteractions(tx *gorm.DB, attemptID uint, groups map[int]map[string]string, now time.Time) error {
	for _, idx := range sortedKeys(groups) {
		fields := groups[idx]

		var row model.ScormInteraction
		err := tx.Where("attempt_id = ? AND `index` = ?", attemptID, idx).First(&row).Error
		if err == gorm.ErrRecordNotFound {
			row = model.ScormInteraction{AttemptID: attemptID, Index: idx, Timestamp: now, Weighting: 1}
		} else if err != nil {
			return err
		}

		patterns := map[int]string{}
		objectiveIDs := map[int]string{}

		for field, value := range fields {
			switch {
			case field == "id":
				row.InteractionID = value
			case field == "type":
				row.Type = model.InteractionType(value)
			case field == "result":
				row.Result = normalizeResult(value)
			case field == "student_response" || field == "learner_response":
				row.LearnerResponse = value
			case field == "weighting":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					row.Weighting = f
				}
			case field == "latency":
				if secs, err := scorm.ParseCMITime(value); err == nil {
					row.LatencySecs = secs
				}
			case field == "description":
				row.Description = value
			case strings.HasPrefix(field, "correct_responses."):
				if sub, ok := subIndex(field, "correct_responses."); ok {
					patterns[sub] = value
				}
			case strings.HasPrefix(field, "objectives."):
				if sub, ok := subIndex(field, "objectives."); ok {
					objectiveIDs[sub] = value
				}
			}
		}

		if len(patterns) > 0 {
			row.CorrectResponses = marshalOrdered(patterns)
		}
		if len(objectiveIDs) > 0 {
			row.Objectives = marshalOrdered(objectiveIDs)
		}

		if err := tx.Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *RuntimeService) upsertObjectives(tx *gorm.DB, attemptID uint, groups map[int]map[string]string) error {
	for _, idx := range sortedKeys(groups) {
		fields := groups[idx]

		var row model.ScormObjective
		query := tx.Where("attempt_id = ? AND `index` = ?", attemptID, idx)
		if id, ok := fields["id"]; ok && id != "" {
			// objective_id 在单次 attempt 内唯一，优先按它定位
			query = tx.Where("attempt_id = ? AND objective_id = ?", attemptID, id)
		}
		err := query.First(&row).Error
		if err == gorm.ErrRecordNotFound {
			row = model.ScormObjective{AttemptID: attemptID, Index: idx, SuccessStatus: model.SuccessUnknown, CompletionStatus: model.LessonNotAttempted, ScoreMax: 100}
		} else if err != nil {
			return err
		}

		for field, value := range fields {
			switch field {
			case "id":
				row.ObjectiveID = value
			case "status", "completion_status":
				if model.ValidLessonStatus(value) {
					row.CompletionStatus = model.LessonStatus(value)
					switch model.LessonStatus(value) {
					case model.LessonPassed:
						row.SuccessStatus = model.SuccessSatisfied
					case model.LessonFailed:
						row.SuccessStatus = model.SuccessNotSatisfied
					}
				}
			case "success_status":
				switch value {
				case "satisfied":
					row.SuccessStatus = model.SuccessSatisfied
				case "not_satisfied", "not satisfied":
					row.SuccessStatus = model.SuccessNotSatisfied
				default:
					row.SuccessStatus = model.SuccessUnknown
				}
			case "score.raw":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					row.ScoreRaw = &f
				}
			case "score.min":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					row.ScoreMin = f
				}
			case "score.max":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					row.ScoreMax = f
				}
			case "score.scaled":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					row.ScoreScaled = &f
				}
			case "progress_measure":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					row.ProgressMeasure = f
				}
			case "description":
				row.Description = value
			}
		}

		if err := tx.Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// normalizeResult SCORM 1.2 用 wrong，落库统一为 incorrect
func normalizeResult(value string) model.InteractionResult {
	switch value {
	case "correct":
		return model.ResultCorrect
	case "wrong", "incorrect":
		return model.ResultIncorrect
	case "unanticipated":
		return model.ResultUnanticipated
	default:
		return model.ResultNeutral
	}
}

func subIndex(field, prefix string) (int, bool) {
	rest := field[len(prefix):]
	parts := strings.SplitN(rest, ".", 2)
	idx, err := strconv.Atoi(parts[0])
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func marshalOrdered(values map[int]string) string {
	keys := sortedKeys(values)
	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, values[k])
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
