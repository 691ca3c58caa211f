package detmetrics

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the class labels used to train the Model from the given
// text file.  It should contain one label per line, where the line number
// is the class ID.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// LabelName returns the label for the given class ID, falling back to a
// numeric name when the class is not covered by the labels list.  It is
// used to build readable metric result names.
func LabelName(labels []string, class int) string {

	if class >= 0 && class < len(labels) {
		return labels[class]
	}

	return fmt.Sprintf("class_%d", class)
}
