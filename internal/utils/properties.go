package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// PropertyPair 是properties文件中的一行键值对
type PropertyPair struct {
	Key   string
	Value string
}

/**
 * Read a java-style properties file
 * @description
 * - Lines split on the first '=', later '=' stay in the value
 * - Blank lines and '#' comments are skipped
 * - Pair order follows file order so a rewrite keeps the layout stable
 */
func ReadProperties(path string) ([]PropertyPair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadProperties('%s') failed: %v", path, err)
	}
	defer file.Close()

	var pairs []PropertyPair
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		pairs = append(pairs, PropertyPair{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ReadProperties('%s') failed: %v", path, err)
	}
	return pairs, nil
}

/**
 * Write a java-style properties file, one key=value per line
 */
func WriteProperties(path string, pairs []PropertyPair) error {
	var sb strings.Builder
	for _, pair := range pairs {
		sb.WriteString(pair.Key)
		sb.WriteString("=")
		sb.WriteString(pair.Value)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("WriteProperties('%s') failed: %v", path, err)
	}
	return nil
}
