// package formatter renders stored client registrations and accounts for the CLI (CSV, styled tables)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/brutaldon/internal/models"
)

const timeLayout = time.RFC3339

// Mask hides all but the first four characters of a secret.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

// ClientRows flattens client registrations into table rows. Secrets are masked unless reveal is set.
func ClientRows(clients []*models.Client, reveal bool) [][]string {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		secret := c.ClientSecret()
		if !reveal {
			secret = Mask(secret)
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Sequence()),
			c.Instance(),
			c.ClientID(),
			secret,
			c.CreatedAt().Format(timeLayout),
		})
	}
	return rows
}

// ClientHeaders are the column names of [ClientRows].
var ClientHeaders = []string{"#", "Instance", "Client ID", "Client Secret", "Created"}

// AccountRows flattens accounts into table rows. instances maps client IDs to instance URLs; tokens are
// masked unless reveal is set.
func AccountRows(accounts []*models.Account, instances map[string]string, reveal bool) [][]string {
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		token := a.AccessToken()
		if !reveal {
			token = Mask(token)
		}

		instance, ok := instances[a.ClientRef()]
		if !ok {
			instance = a.ClientRef()
		}

		rows = append(rows, []string{
			strconv.Itoa(a.Sequence()),
			a.Username(),
			instance,
			token,
			a.UpdatedAt().Format(timeLayout),
		})
	}
	return rows
}

// AccountHeaders are the column names of [AccountRows].
var AccountHeaders = []string{"#", "Username", "Instance", "Access Token", "Updated"}

// ToCSV writes headers and rows as CSV.
func ToCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToTable renders headers and rows as a bordered table with a bold header row.
func ToTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Hint).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	return t.Render()
}
