package job

import "os"

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func fileSizeOrZero(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
