package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// ConvertContributorsCSV flattens a contributors history document into dated
// CSV rows. The three series are dated independently; rows carry forward the
// last known value for any series without an entry on a given date.
func ConvertContributorsCSV(inputPath, outputPath, prefix string) error {
	payload, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	var document map[string][]HistoryPoint
	if err := json.Unmarshal(payload, &document); err != nil {
		return fmt.Errorf("parse %s: %w", inputPath, err)
	}

	columns := []string{
		prefix + "_code_contributors",
		prefix + "_community_contributors",
		prefix + "_contributors",
	}

	byDate := make([]map[string]int, len(columns))
	dateSet := make(map[string]struct{})
	for i, column := range columns {
		byDate[i] = make(map[string]int)
		for _, point := range document[column] {
			byDate[i][point.Date] = point.Count
			dateSet[point.Date] = struct{}{}
		}
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	writer, closeFn, err := openCSV(outputPath)
	if err != nil {
		return err
	}

	if err := writer.Write(append([]string{"date"}, columns...)); err != nil {
		_ = closeFn()
		return fmt.Errorf("write csv header: %w", err)
	}

	last := make([]int, len(columns))
	for _, date := range dates {
		row := make([]string, 0, len(columns)+1)
		row = append(row, date)
		for i := range columns {
			if count, ok := byDate[i][date]; ok {
				last[i] = count
			}
			row = append(row, strconv.Itoa(last[i]))
		}
		if err := writer.Write(row); err != nil {
			_ = closeFn()
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = closeFn()
		return fmt.Errorf("flush csv: %w", err)
	}
	return closeFn()
}

// ConvertStarsCSV flattens one series of a stars history document into
// date,star_count rows sorted chronologically. The input may be the full
// document (key selects the series, usually total_stars_history) or a bare
// series array.
func ConvertStarsCSV(inputPath, outputPath, key string) error {
	payload, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	var series []StarPoint
	if err := json.Unmarshal(payload, &series); err != nil {
		var document map[string][]StarPoint
		if err := json.Unmarshal(payload, &document); err != nil {
			return fmt.Errorf("parse %s: %w", inputPath, err)
		}
		var ok bool
		series, ok = document[key]
		if !ok {
			return fmt.Errorf("key %q not found in %s", key, inputPath)
		}
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	writer, closeFn, err := openCSV(outputPath)
	if err != nil {
		return err
	}

	if err := writer.Write([]string{"date", "star_count"}); err != nil {
		_ = closeFn()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, point := range series {
		if err := writer.Write([]string{point.Date, strconv.Itoa(point.Count)}); err != nil {
			_ = closeFn()
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = closeFn()
		return fmt.Errorf("flush csv: %w", err)
	}
	return closeFn()
}

func openCSV(path string) (*csv.Writer, func() error, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return csv.NewWriter(file), file.Close, nil
}
