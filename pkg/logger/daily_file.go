package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyFile writer que rota por fecha: <dir>/<prefix>-YYYY-MM-DD.log.
// El archivo se abre en la primera escritura del día.
type DailyFile struct {
	dir    string
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyFile crea el writer; no toca disco hasta la primera escritura.
func NewDailyFile(dir, prefix string) *DailyFile {
	return &DailyFile{dir: dir, prefix: prefix, now: time.Now}
}

// Path devuelve la ruta del archivo correspondiente a t.
func (d *DailyFile) Path(t time.Time) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s-%s.log", d.prefix, t.Format("2006-01-02")))
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	day := now.Format("2006-01-02")
	if d.file == nil || d.day != day {
		if d.file != nil {
			_ = d.file.Close()
			d.file = nil
		}
		if err := os.MkdirAll(d.dir, 0o755); err != nil {
			return 0, err
		}
		f, err := os.OpenFile(d.Path(now), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		d.file = f
		d.day = day
	}
	return d.file.Write(p)
}

// Close cierra el archivo abierto.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
