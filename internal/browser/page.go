package browser

import (
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page adapts a playwright page to the scrape.PageContent contract: every
// query is timeout-bounded and degrades to "" on a missing element, a
// timeout, or empty text. Selector misses are routine on marketplace pages,
// so none of them are errors here.
type Page struct {
	page playwright.Page
}

func NewPage(page playwright.Page) *Page {
	return &Page{page: page}
}

func (p *Page) HTML() string {
	content, err := p.page.Content()
	if err != nil {
		return ""
	}
	return content
}

func (p *Page) QueryText(selector string, timeout time.Duration) string {
	text, err := p.page.Locator(selector).First().InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (p *Page) QueryAttribute(selector, attr string, timeout time.Duration) string {
	value, err := p.page.Locator(selector).First().GetAttribute(attr, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

// QueryFirstTextNode reads only the element's first text node, skipping
// child elements such as inline icons.
func (p *Page) QueryFirstTextNode(selector string, timeout time.Duration) string {
	locator := p.page.Locator(selector).First()
	if err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return ""
	}

	value, err := locator.Evaluate(
		`element => element.childNodes.length > 0 ? element.childNodes[0].textContent : ""`,
		nil,
	)
	if err != nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

func (p *Page) Close() {
	_ = p.page.Close()
}
