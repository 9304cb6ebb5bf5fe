package cdp

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Attribute carries the token of the element an action targets.
const Attribute = "data-formprobe-id"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// prelude defines the helpers every finder and operation uses.
const prelude = `
const fpNorm = s => (s || '').replace(/\s+/g, ' ').trim();
const fpVisible = el => {
  if (!el || !el.isConnected) return false;
  const st = getComputedStyle(el);
  if (st.visibility === 'hidden' || st.display === 'none') return false;
  return el.getClientRects().length > 0;
};
const fpControls = 'input:not([type=hidden]), select, textarea, button';
const fpLabels = el => {
  const out = [];
  if (el.labels) for (const l of el.labels) out.push(fpNorm(l.textContent));
  const aria = el.getAttribute('aria-label');
  if (aria) out.push(fpNorm(aria));
  const by = el.getAttribute('aria-labelledby');
  if (by) for (const id of by.split(/\s+/)) {
    const ref = document.getElementById(id);
    if (ref) out.push(fpNorm(ref.textContent));
  }
  return out;
};
const fpName = el => fpNorm(el.getAttribute('aria-label') || el.textContent || el.value || '');
`

// finder is a JavaScript expression evaluating to an array of elements.
type finder string

func literal(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Only strings and bools are marshalled here.
		panic(fmt.Sprintf("cdp: cannot encode %T: %v", v, err))
	}
	return string(b)
}

// jsRegex translates a Go pattern into a JavaScript RegExp constructor. The
// leading (?i) flag group becomes the "i" flag.
func jsRegex(re *regexp.Regexp) string {
	src, flags := re.String(), ""
	if strings.HasPrefix(src, "(?i)") {
		src, flags = strings.TrimPrefix(src, "(?i)"), "i"
	}
	return fmt.Sprintf("new RegExp(%s, %s)", literal(src), literal(flags))
}

func findByLabel(re *regexp.Regexp) finder {
	return finder(fmt.Sprintf(`(() => { const re = %s;
  return Array.from(document.querySelectorAll(fpControls)).filter(el => fpLabels(el).some(t => re.test(t))); })()`,
		jsRegex(re)))
}

func findNearLabel(text string) finder {
	return finder(fmt.Sprintf(`(() => { const needle = %s.toLowerCase(); const out = [];
  for (const l of document.querySelectorAll('label')) {
    if (!fpVisible(l) || !fpNorm(l.textContent).toLowerCase().includes(needle)) continue;
    const r = document.evaluate('following::*[self::input or self::select or self::textarea][1]', l, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
    const el = r.singleNodeValue;
    if (el && !out.includes(el)) out.push(el);
  }
  return out.sort((a, b) => a.compareDocumentPosition(b) & Node.DOCUMENT_POSITION_FOLLOWING ? -1 : 1); })()`,
		literal(text)))
}

func findByPlaceholder(re *regexp.Regexp) finder {
	return finder(fmt.Sprintf(`(() => { const re = %s;
  return Array.from(document.querySelectorAll('[placeholder]')).filter(el => re.test(el.getAttribute('placeholder'))); })()`,
		jsRegex(re)))
}

func findQuery(selector string) finder {
	return finder(fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, literal(selector)))
}

func findButton(re *regexp.Regexp) finder {
	return finder(fmt.Sprintf(`(() => { const re = %s;
  const sel = 'button, input[type=submit], input[type=button], input[type=reset], [role=button]';
  return Array.from(document.querySelectorAll(sel)).filter(el => re.test(fpName(el))); })()`,
		jsRegex(re)))
}

// script wraps op, a function of the matched element array, around f. The
// result is {n, value, err}.
func script(f finder, first bool, op string) string {
	return fmt.Sprintf(`(() => { %s
  let els = %s;
  if (%t) els = els.slice(0, 1);
  try { return { n: els.length, value: (%s)(els) }; }
  catch (e) { return { n: els.length, err: String(e && e.message || e) }; } })()`,
		prelude, string(f), first, op)
}

// single guards an element operation so it only runs on exactly one match.
func single(body string) string {
	return fmt.Sprintf(`els => { if (els.length !== 1) return null; const el = els[0]; %s }`, body)
}

const (
	opCount      = `els => els.length`
	opVisible    = `els => els.length === 1 && fpVisible(els[0])`
	opTagName    = `el => el.tagName.toLowerCase()`
	opDisabled   = `el => el.matches(':disabled')`
	opChecked    = `el => !!el.checked`
	opRequired   = `el => !!el.required`
	opValidity   = `el => typeof el.checkValidity === 'function' ? el.checkValidity() : true`
	opActionable = `el => ({ visible: fpVisible(el), disabled: el.matches(':disabled'), editable: !el.readOnly })`
)

func opRead(fn string) string {
	return single("return (" + fn + ")(el);")
}

func opTag(token string) string {
	return single(fmt.Sprintf(`for (const o of document.querySelectorAll('[%s=%s]')) o.removeAttribute(%s);
  el.setAttribute(%s, %s); return true;`,
		Attribute, literal(token), literal(Attribute), literal(Attribute), literal(token)))
}

// opOptionValue returns the value of the option whose label or value
// matches want, or null.
func opOptionValue(want string, byLabel bool) string {
	return single(fmt.Sprintf(`if (el.tagName.toLowerCase() !== 'select') throw new Error('element is not a <select> element');
  const want = %s;
  for (const o of el.options) {
    if (%t ? fpNorm(o.label || o.textContent) === want : o.value === want) return o.value;
  }
  return null;`, literal(want), byLabel))
}

func opDispatch(events ...string) string {
	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "el.dispatchEvent(new Event(%s, { bubbles: true }));", literal(e))
	}
	b.WriteString(" return true;")
	return single(b.String())
}
