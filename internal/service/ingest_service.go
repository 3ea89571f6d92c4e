package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/scorm"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/logger"
	"scorm_lms_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestService 课件包的校验、解压与清单解析。
// 包记录只会终止在 ready 或 error，不会停在 pending/processing。
type IngestService struct {
	PackageRepo *repository.PackageRepository
	Storage     *StorageService
	Cfg         *config.Config
}

func NewIngestService(pkgRepo *repository.PackageRepository, storage *StorageService, cfg *config.Config) *IngestService {
	return &IngestService{
		PackageRepo: pkgRepo,
		Storage:     storage,
		Cfg:         cfg,
	}
}

func (s *IngestService) MaxUploadBytes() int64 {
	if s.Cfg.Scorm.MaxUploadBytes > 0 {
		return s.Cfg.Scorm.MaxUploadBytes
	}
	return util.MaxPackageSize
}

// ValidateUpload 入库前的上传校验：扩展名、大小、可打开、根目录含清单。
// 所有违规以 *util.ValidationError 返回，表单层直接回显。
func (s *IngestService) ValidateUpload(filename string, size int64, ra io.ReaderAt) error {
	if !strings.HasSuffix(strings.ToLower(filename), util.ScormArchiveExt) {
		return util.NewValidationError("packageFile", "file must be a ZIP archive")
	}
	if size > s.MaxUploadBytes() {
		return util.NewValidationError("packageFile", "file size cannot exceed %d MiB", s.MaxUploadBytes()/(1024*1024))
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return util.NewValidationError("packageFile", "invalid ZIP file")
	}
	if scorm.FindManifest(zr) == nil {
		return util.NewValidationError("packageFile", "invalid SCORM package: %s not found", util.ScormManifest)
	}
	return nil
}

// StoreArchive 把归档原件写入对象存储，返回存储键
func (s *IngestService) StoreArchive(ctx context.Context, pkg *model.ScormPackage, filename string, reader io.Reader, size int64) (string, error) {
	key := path.Join(util.PackageObjectPrefix, fmt.Sprintf("%d", pkg.CourseID), filename)
	if _, err := s.Storage.Upload(ctx, key, reader, size, util.MimeZip); err != nil {
		return "", err
	}
	return key, nil
}

// Ingest 解压归档并解析清单。成功置 ready；任何失败（损坏归档、
// 解析失败、文件系统错误）置 error 并记录可读信息，不向上传调用方抛出。
func (s *IngestService) Ingest(ctx context.Context, pkg *model.ScormPackage, ra io.ReaderAt, size int64) {
	pkg.Status = model.PackageProcessing
	if err := s.PackageRepo.Save(pkg); err != nil {
		logger.Log.Error("failed to mark package processing", zap.Uint("package", pkg.ID), zap.Error(err))
	}

	if err := s.ingest(pkg, ra, size); err != nil {
		pkg.Status = model.PackageError
		pkg.ErrorMessage = err.Error()
		pkg.ExtractedPath = ""
		pkg.EntryPoint = ""
		monitoring.IngestCounter.WithLabelValues("error").Inc()
		logger.Log.Warn("scorm package ingestion failed",
			zap.Uint("package", pkg.ID),
			zap.String("slug", pkg.Slug),
			zap.Error(err))
	} else {
		pkg.Status = model.PackageReady
		pkg.ErrorMessage = ""
		monitoring.IngestCounter.WithLabelValues("ready").Inc()
		logger.Log.Info("scorm package ready",
			zap.Uint("package", pkg.ID),
			zap.String("slug", pkg.Slug),
			zap.String("entryPoint", pkg.EntryPoint))
	}

	if err := s.PackageRepo.Save(pkg); err != nil {
		logger.Log.Error("failed to persist ingestion outcome", zap.Uint("package", pkg.ID), zap.Error(err))
	}
}

func (s *IngestService) ingest(pkg *model.ScormPackage, ra io.ReaderAt, size int64) error {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return fmt.Errorf("invalid ZIP file: %w", err)
	}

	manifestRaw, err := scorm.ReadManifest(zr)
	if err != nil {
		return err
	}
	mf, err := scorm.ParseManifest(manifestRaw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", util.ScormManifest, err)
	}

	relDir := filepath.Join(util.ExtractDirName, fmt.Sprintf("%d", pkg.CourseID), pkg.Slug)
	finalDir := filepath.Join(s.Cfg.Scorm.MediaRoot, relDir)

	// 先解压到临时目录，再原子换入，避免读到写了一半的目录树
	tmpDir := finalDir + ".tmp-" + uuid.New().String()[:8]
	if err := os.MkdirAll(filepath.Dir(finalDir), 0o755); err != nil {
		return err
	}
	if err := scorm.ExtractAll(zr, tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	if err := swapDirs(tmpDir, finalDir); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}

	entry := mf.EntryPoint()
	if entry == "" {
		entry = util.DefaultEntryFile
	}

	manifestJSON, err := json.Marshal(mf)
	if err != nil {
		return err
	}

	pkg.ExtractedPath = filepath.ToSlash(relDir)
	pkg.EntryPoint = entry
	pkg.ManifestData = string(manifestJSON)
	return nil
}

// swapDirs 用 rename 将新解压树换入目标位置，旧树整体移开后删除
func swapDirs(tmpDir, finalDir string) error {
	oldDir := finalDir + ".old-" + uuid.New().String()[:8]
	hadOld := false
	if _, err := os.Stat(finalDir); err == nil {
		if err := os.Rename(finalDir, oldDir); err != nil {
			return err
		}
		hadOld = true
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		if hadOld {
			os.Rename(oldDir, finalDir)
		}
		return err
	}
	if hadOld {
		os.RemoveAll(oldDir)
	}
	return nil
}

// Cleanup 删除解压树与归档原件（包删除时调用）
func (s *IngestService) Cleanup(ctx context.Context, pkg *model.ScormPackage) {
	if pkg.ExtractedPath != "" {
		dir := filepath.Join(s.Cfg.Scorm.MediaRoot, filepath.FromSlash(pkg.ExtractedPath))
		if err := os.RemoveAll(dir); err != nil {
			logger.Log.Warn("failed to remove extraction tree", zap.String("dir", dir), zap.Error(err))
		}
	}
	if pkg.PackageFile != "" {
		if err := s.Storage.Delete(ctx, pkg.PackageFile); err != nil {
			logger.Log.Warn("failed to remove package archive", zap.String("key", pkg.PackageFile), zap.Error(err))
		}
	}
}
