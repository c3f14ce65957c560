package snapshot

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

var (
	platformVersionPattern     = regexp.MustCompile(`DPF\s+v?(\d+\.\d+\.\d+)`)
	orchestratorVersionPattern = regexp.MustCompile(`OpenShift\s+(\d+\.\d+(?:\.\d+)?)`)

	envAssignmentPattern = regexp.MustCompile(`^(?:export\s+)?([A-Z_]+)=(.+)`)
	setFlagPattern       = regexp.MustCompile(`--set\s+([^=\s]+)=(\S+)`)
	valuesFilePattern    = regexp.MustCompile(`-f\s+(\S+\.ya?ml)`)
	addressPattern       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}(?:/\d{1,2})?\b`)

	prerequisiteHeading = regexp.MustCompile(`(?i)prerequisite`)
	knownIssueHeading   = regexp.MustCompile(`(?i)known issue|limitation`)
)

// NetworkKeywords are the concepts whose neighbouring address literals are collected
var NetworkKeywords = []string{"CIDR", "subnet", "VLAN", "MTU", "bridge", "interface"}

// minKnownIssueParagraph filters out short captions under known issue headings
const minKnownIssueParagraph = 20

// blockKind classifies a code block found in documentation
type blockKind int

const (
	blockOther blockKind = iota
	blockManifest
	blockHelm
	blockEnv
)

// DocumentExtractor builds a ConfigSnapshot from an HTML documentation page.
type DocumentExtractor struct {
	logger *logrus.Logger
}

// NewDocumentExtractor creates a documentation extractor
func NewDocumentExtractor(logger *logrus.Logger) *DocumentExtractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &DocumentExtractor{logger: logger}
}

// Extract parses content and applies the documentation heuristics. Blocks that fail
// to parse are skipped; the only error is an unparseable page.
func (d *DocumentExtractor) Extract(location string, content []byte) (*ConfigSnapshot, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, &errdefs.ParseError{Path: location, Err: err}
	}

	snap := New(SourceDocumentation, location)
	raw := string(content)
	if m := platformVersionPattern.FindStringSubmatch(raw); m != nil {
		snap.Versions[VersionKeyPlatform] = "v" + m[1]
	}
	if m := orchestratorVersionPattern.FindStringSubmatch(raw); m != nil {
		snap.Versions[VersionKeyOrchestrator] = m[1]
	}

	for _, block := range codeBlocks(root) {
		d.applyCodeBlock(location, block, snap)
	}
	extractNetwork(root, snap)
	snap.Prerequisites = append(snap.Prerequisites, sectionTexts(root, prerequisiteHeading, 0)...)
	snap.KnownIssues = append(snap.KnownIssues, sectionTexts(root, knownIssueHeading, minKnownIssueParagraph)...)

	d.logger.Infof("Extracted documentation snapshot from %s (env vars: %d, chart values: %d, prerequisites: %d, known issues: %d)",
		location, len(snap.EnvironmentVariables), len(snap.ChartValues), len(snap.Prerequisites), len(snap.KnownIssues))
	return snap, nil
}

// classifyBlock decides how a code block is interpreted. Manifest detection wins over
// helm detection, which wins over plain assignments, since helm commands contain "=" too.
func classifyBlock(content string) blockKind {
	switch {
	case strings.HasPrefix(content, "apiVersion:") || strings.Contains(content, "kind:"):
		return blockManifest
	case strings.Contains(content, "helm ") || strings.Contains(content, "--set"):
		return blockHelm
	case strings.Contains(content, "export ") || strings.Contains(content, "="):
		return blockEnv
	default:
		return blockOther
	}
}

func (d *DocumentExtractor) applyCodeBlock(location, content string, snap *ConfigSnapshot) {
	switch classifyBlock(content) {
	case blockManifest:
		metas, err := manifest.ReadTypeMetas(location, []byte(content))
		if err != nil {
			d.logger.Debugf("Skipping malformed manifest block: %v", err)
		}
		for _, meta := range metas {
			snap.AddAPIVersion(meta.Kind, meta.APIVersion)
		}
	case blockHelm:
		for _, m := range setFlagPattern.FindAllStringSubmatch(content, -1) {
			snap.ChartValues[m[1]] = m[2]
		}
		for _, m := range valuesFilePattern.FindAllStringSubmatch(content, -1) {
			snap.ValuesFiles = utils.AppendUnique(snap.ValuesFiles, m[1])
		}
	case blockEnv:
		for _, line := range strings.Split(content, "\n") {
			m := envAssignmentPattern.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				continue
			}
			snap.EnvironmentVariables[m[1]] = strings.Trim(m[2], `"'`)
		}
	}
}

// codeBlocks returns the text of every pre element and every code element outside a pre,
// in document order
func codeBlocks(root *html.Node) []string {
	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Pre || n.DataAtom == atom.Code) {
			if text := strings.TrimSpace(rawText(n)); text != "" {
				blocks = append(blocks, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return blocks
}

// extractNetwork collects address literals from elements whose own text mentions a network keyword
func extractNetwork(root *html.Node, snap *ConfigSnapshot) {
	for _, keyword := range NetworkKeywords {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword))
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
				return
			}
			if n.Type == html.TextNode && n.Parent != nil && pattern.MatchString(n.Data) {
				for _, literal := range addressPattern.FindAllString(rawText(n.Parent), -1) {
					snap.AddNetworkLiteral(keyword, literal)
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
	}
}

// sectionTexts finds h2/h3 headings matching pattern and collects list item and paragraph
// text up to the next heading of equal or higher level. Paragraphs no longer than minParagraph
// characters are dropped.
func sectionTexts(root *html.Node, pattern *regexp.Regexp, minParagraph int) []string {
	var out []string
	for _, heading := range findAll(root, atom.H2, atom.H3) {
		if !pattern.MatchString(text(heading)) {
			continue
		}
		level := headingLevel(heading)
		for sib := nextElement(heading); sib != nil; sib = nextElement(sib) {
			if l := headingLevel(sib); l > 0 && l <= level {
				break
			}
			switch sib.DataAtom {
			case atom.Ul, atom.Ol:
				for _, li := range findAll(sib, atom.Li) {
					if t := text(li); t != "" {
						out = append(out, t)
					}
				}
			case atom.P:
				if t := text(sib); t != "" && len(t) > minParagraph {
					out = append(out, t)
				}
			}
		}
	}
	return out
}

func findAll(root *html.Node, atoms ...atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range atoms {
				if n.DataAtom == a {
					out = append(out, n)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func nextElement(n *html.Node) *html.Node {
	for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode {
			return sib
		}
	}
	return nil
}

func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// rawText concatenates all text below n, preserving whitespace
func rawText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// text returns the text below n with runs of whitespace collapsed
func text(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}
