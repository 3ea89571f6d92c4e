// 清理孤儿解压目录脚本
//
// 课件包删除失败或历史数据迁移后，media 目录下可能残留不再对应
// 任何数据库记录的解压树。该脚本扫描解压目录并删除孤儿。
//
// 用法: go run scripts/purge_orphans.go
package main

import (
	"log"
	"os"
	"path/filepath"

	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/database"
	"scorm_lms_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	// 配置结构体用的是 mapstructure 标签，这里按 yaml 键名单独声明
	var raw struct {
		Server   config.ServerConfig   `yaml:"server"`
		Database config.DatabaseConfig `yaml:"database"`
		Scorm    struct {
			MediaRoot string `yaml:"media_root"`
		} `yaml:"scorm"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	var cfg config.Config
	cfg.Server = raw.Server
	cfg.Database = raw.Database
	cfg.Scorm.MediaRoot = raw.Scorm.MediaRoot
	if cfg.Scorm.MediaRoot == "" {
		cfg.Scorm.MediaRoot = "media"
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	extractRoot := filepath.Join(cfg.Scorm.MediaRoot, util.ExtractDirName)
	courseDirs, err := os.ReadDir(extractRoot)
	if err != nil {
		log.Fatalf("无法读取解压目录 %s: %v", extractRoot, err)
	}

	// 全量拉一次 slug，按目录名比对
	var slugs []string
	if err := db.Model(&model.ScormPackage{}).Pluck("slug", &slugs).Error; err != nil {
		log.Fatalf("查询课件包失败: %v", err)
	}
	known := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		known[s] = true
	}

	removed := 0
	for _, courseDir := range courseDirs {
		if !courseDir.IsDir() {
			continue
		}
		pkgDirs, err := os.ReadDir(filepath.Join(extractRoot, courseDir.Name()))
		if err != nil {
			continue
		}
		for _, pkgDir := range pkgDirs {
			if !pkgDir.IsDir() || known[pkgDir.Name()] {
				continue
			}
			target := filepath.Join(extractRoot, courseDir.Name(), pkgDir.Name())
			if err := os.RemoveAll(target); err != nil {
				log.Printf("删除失败 %s: %v", target, err)
				continue
			}
			log.Printf("已删除孤儿目录: %s", target)
			removed++
		}
	}

	log.Printf("完成！共删除 %d 个孤儿目录", removed)
}
