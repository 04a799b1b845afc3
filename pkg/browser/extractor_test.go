package browser

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanPage(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		wantTitle string
		wantDesc  string
		wantHTML  []string // substrings that should be present
		wantNot   []string // substrings that should NOT be present
		wantText  []string
		truncated bool
	}{
		{
			name: "script and style removal",
			input: `<html>
				<head>
					<title>Test Page</title>
					<meta name="description" content="Test description">
					<script>alert('evil');</script>
					<style>body { color: red; }</style>
				</head>
				<body>
					<h1 id="main-title">Hello World</h1>
					<p class="intro">This is a test.</p>
				</body>
			</html>`,
			maxLength: 10000,
			wantTitle: "Test Page",
			wantDesc:  "Test description",
			wantHTML:  []string{`<h1 id="main-title">`, "Hello World", `<p class="intro">`, "This is a test"},
			wantNot:   []string{"<script>", "alert", "<style>", "color: red"},
			wantText:  []string{"Hello World", "This is a test."},
		},
		{
			name: "boilerplate chrome removal",
			input: `<html><body>
				<nav><a href="/home">Home</a></nav>
				<main><p>Real content</p></main>
				<aside>Related links</aside>
				<footer><p>Copyright</p></footer>
			</body></html>`,
			maxLength: 10000,
			wantHTML:  []string{"<main>", "Real content"},
			wantNot:   []string{"<nav>", "Home", "<footer>", "Copyright", "Related links"},
			wantText:  []string{"Real content"},
		},
		{
			name: "ad-marked elements removed",
			input: `<html><body>
				<div class="content">Article body</div>
				<div class="ad banner-top">Buy stuff</div>
				<div id="sponsored">Sponsored content</div>
				<ins class="adsbygoogle">ad unit</ins>
			</body></html>`,
			maxLength: 10000,
			wantHTML:  []string{"Article body"},
			wantNot:   []string{"Buy stuff", "Sponsored content", "ad unit"},
		},
		{
			name: "admin is not an ad marker",
			input: `<html><body>
				<div class="admin-panel">Settings</div>
				<div id="address">1 Main St</div>
			</body></html>`,
			maxLength: 10000,
			wantHTML:  []string{"Settings", "1 Main St"},
		},
		{
			name: "targeting attributes preserved",
			input: `<html><body>
				<form action="/submit" method="post">
					<input type="text" name="username" id="user-input" placeholder="Enter name" data-test="username-field">
					<button type="submit" class="btn-primary">Submit</button>
				</form>
			</body></html>`,
			maxLength: 10000,
			wantHTML: []string{
				`<form action="/submit" method="post">`,
				`type="text"`,
				`name="username"`,
				`id="user-input"`,
				`placeholder="Enter name"`,
				`data-test="username-field"`,
				`class="btn-primary"`,
			},
		},
		{
			name:      "truncation at max length",
			input:     `<html><body><p>` + strings.Repeat("word ", 200) + `</p></body></html>`,
			maxLength: 100,
			truncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanPage(tt.input, tt.maxLength)
			if err != nil {
				t.Fatalf("CleanPage: %v", err)
			}

			if tt.wantTitle != "" && got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if tt.wantDesc != "" && got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			for _, want := range tt.wantHTML {
				if !strings.Contains(got.HTML, want) {
					t.Errorf("HTML missing %q:\n%s", want, got.HTML)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(got.HTML, not) {
					t.Errorf("HTML should not contain %q:\n%s", not, got.HTML)
				}
			}
			for _, want := range tt.wantText {
				if !strings.Contains(got.Text, want) {
					t.Errorf("Text missing %q:\n%s", want, got.Text)
				}
			}
			if got.Truncated != tt.truncated {
				t.Errorf("Truncated = %v, want %v", got.Truncated, tt.truncated)
			}
		})
	}
}

func TestTruncateAtRune(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"ascii fits", "hello", 10, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"zero max", "hello", 0, ""},
		{"cut lands mid-rune", "aéb", 2, "a"},
		{"cut lands on rune start", "aéb", 3, "aé"},
		{"multi-byte only", "ééé", 3, "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateAtRune(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("truncateAtRune(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateAtRune(%q, %d) produced invalid UTF-8: %q", tt.input, tt.max, got)
			}
		})
	}
}

func TestCleanPageTruncatesOnRuneBoundary(t *testing.T) {
	// Tag overhead leaves an odd byte budget for the two-byte runes, so a
	// naive byte cut would land inside one.
	page := "<html><body><p>" + strings.Repeat("é", 200) + "</p></body></html>"

	got, err := CleanPage(page, 100)
	if err != nil {
		t.Fatalf("CleanPage: %v", err)
	}
	if !got.Truncated {
		t.Fatal("expected truncation")
	}
	if !utf8.ValidString(got.Text) {
		t.Errorf("truncated text is invalid UTF-8: %q", got.Text)
	}
	if !utf8.ValidString(got.HTML) {
		t.Errorf("truncated HTML is invalid UTF-8: %q", got.HTML)
	}
}

func TestCleanPageDefaultsMaxLength(t *testing.T) {
	got, err := CleanPage("<html><body><p>hi</p></body></html>", 0)
	if err != nil {
		t.Fatalf("CleanPage: %v", err)
	}
	if got.Truncated {
		t.Error("tiny page should not be truncated under the default budget")
	}
}
