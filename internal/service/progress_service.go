package service

import (
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
)

// ProgressService 学员维度的进度汇总，按需现算不缓存
type ProgressService struct {
	AttemptRepo *repository.AttemptRepository
}

func NewProgressService(attemptRepo *repository.AttemptRepository) *ProgressService {
	return &ProgressService{AttemptRepo: attemptRepo}
}

// PackageProgress 单个包的汇总
type PackageProgress struct {
	Package       *model.ScormPackage `json:"package"`
	LatestAttempt *model.ScormAttempt `json:"latestAttempt"`
	TotalAttempts int                 `json:"totalAttempts"`
	BestScore     float64             `json:"bestScore"`
	Completed     bool                `json:"completed"`
}

// ProgressSummary 学员全量进度
type ProgressSummary struct {
	Packages          []*PackageProgress `json:"packages"`
	TotalPackages     int                `json:"totalPackages"`
	CompletedPackages int                `json:"completedPackages"`
}

// Summarize 一次遍历学员的全部 attempt（已按开始时间倒序），
// 每个包取最近一次 attempt、累计次数与最高原始分。
func (s *ProgressService) Summarize(userID uint) (*ProgressSummary, error) {
	attempts, err := s.AttemptRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	byPackage := make(map[uint]*PackageProgress)
	var ordered []*PackageProgress

	for i := range attempts {
		attempt := &attempts[i]
		entry, ok := byPackage[attempt.PackageID]
		if !ok {
			// 列表倒序，首次遇到的就是最近一次 attempt
			entry = &PackageProgress{
				Package:       attempt.Package,
				LatestAttempt: attempt,
			}
			byPackage[attempt.PackageID] = entry
			ordered = append(ordered, entry)
		}

		entry.TotalAttempts++
		if attempt.ScoreRaw != nil && *attempt.ScoreRaw > entry.BestScore {
			entry.BestScore = *attempt.ScoreRaw
		}
		if attempt.IsTerminal() {
			entry.Completed = true
		}
	}

	summary := &ProgressSummary{
		Packages:      ordered,
		TotalPackages: len(ordered),
	}
	for _, entry := range ordered {
		if entry.Completed {
			summary.CompletedPackages++
		}
	}
	return summary, nil
}
