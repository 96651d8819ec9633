package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Host           string
	Port           int
	AllowOrigins   []string
	LogLevel       string
	MaxUploadMB    int
	LogFile        string
	MaterialMap    string // YAML/JSON с таблицами сопоставления
	OekobilanzFile string // книга KBOB, опционально
	Sheet          string // лист Mengenliste
	HeaderRow      int    // строка заголовков Mengenliste, 1-based
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8082"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "64"))
	hdr, err := strconv.Atoi(getenv("MENGENLISTE_HEADER_ROW", "8"))
	if err != nil || hdr < 1 {
		hdr = 8
	}
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		Host:           getenv("HOST", "127.0.0.1"),
		Port:           port,
		AllowOrigins:   origins,
		LogLevel:       getenv("LOG_LEVEL", "info"),
		MaxUploadMB:    mb,
		LogFile:        getenv("LOG_FILE", "logs/ubp-service.log"),
		MaterialMap:    getenv("MATERIAL_MAP_FILE", "data/material_map.yaml"),
		OekobilanzFile: getenv("OEKOBILANZ_FILE", "Oekobilanzdaten_ Baubereich_Donne_ecobilans_construction_2009-1-2022_v7.0.xlsx"),
		Sheet:          getenv("MENGENLISTE_SHEET", "Mengenliste"),
		HeaderRow:      hdr,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
