package session

// Function expressions for CallOnElement. `this` is the element.
const (
	ScriptScrollIntoView = `function() {
  this.scrollIntoView({block: 'center', inline: 'center'});
  return true;
}`

	ScriptJSClick = `function() {
  this.click();
  return true;
}`

	// ScriptSelectOption selects the first option whose value or visible
	// text equals choice. Returns "ok" or "missing".
	ScriptSelectOption = `function(choice) {
  var want = String(choice).trim();
  var opts = this.options || [];
  for (var i = 0; i < opts.length; i++) {
    var o = opts[i];
    if (o.value === want || String(o.text).trim() === want) {
      this.selectedIndex = i;
      this.dispatchEvent(new Event('input', {bubbles: true}));
      this.dispatchEvent(new Event('change', {bubbles: true}));
      return 'ok';
    }
  }
  return 'missing';
}`

	ScriptValue = `function() {
  return this.value === undefined || this.value === null ? '' : String(this.value);
}`

	ScriptValidationMessage = `function() {
  return this.validationMessage || '';
}`

	ScriptChecked = `function() {
  return !!this.checked;
}`
)

// Function bodies for ExecuteScript.
const (
	// ScriptRemoveOverlays removes every element matching the selectors in
	// arguments[0] and returns how many were removed.
	ScriptRemoveOverlays = `var removed = 0;
var sels = arguments[0] || [];
for (var i = 0; i < sels.length; i++) {
  var found = document.querySelectorAll(sels[i]);
  for (var j = 0; j < found.length; j++) {
    found[j].remove();
    removed++;
  }
}
return removed;`

	ScriptDocumentReady = `return document.readyState;`

	ScriptOpenWindow = `window.open(arguments[0], '_blank');
return true;`
)

// Scripts used by the Chrome session to emulate WebDriver element commands.
const (
	refAttr = "data-shopflow-ref"

	// scriptFind runs a query and tags each match with a per-document ref.
	scriptFind = `function(by, value, scopeRef) {
  var root = document;
  if (scopeRef) {
    root = document.querySelector('[data-shopflow-ref="' + scopeRef + '"]');
    if (!root) { return {stale: true}; }
  }
  var found = [];
  var i;
  var attrQuery = function(name) {
    var all = root.querySelectorAll('[' + name + ']');
    for (i = 0; i < all.length; i++) {
      if (all[i].getAttribute(name) === value) { found.push(all[i]); }
    }
  };
  var linkQuery = function(partial) {
    var links = root.querySelectorAll('a');
    var want = value.trim();
    for (i = 0; i < links.length; i++) {
      var text = (links[i].innerText || links[i].textContent || '').trim();
      if (partial ? text.indexOf(want) !== -1 : text === want) { found.push(links[i]); }
    }
  };
  try {
    switch (by) {
    case 'css selector':
      found = Array.prototype.slice.call(root.querySelectorAll(value));
      break;
    case 'id':
      attrQuery('id');
      break;
    case 'name':
      attrQuery('name');
      break;
    case 'class name':
      found = Array.prototype.slice.call(root.getElementsByClassName(value));
      break;
    case 'tag name':
      found = Array.prototype.slice.call(root.getElementsByTagName(value));
      break;
    case 'link text':
      linkQuery(false);
      break;
    case 'partial link text':
      linkQuery(true);
      break;
    case 'xpath':
      var snap = document.evaluate(value, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
      for (i = 0; i < snap.snapshotLength; i++) {
        var node = snap.snapshotItem(i);
        if (node.nodeType === 1) { found.push(node); }
      }
      break;
    default:
      return {error: 'invalid argument', message: 'unknown strategy ' + by};
    }
  } catch (e) {
    return {error: 'invalid selector', message: String(e && e.message || e)};
  }
  if (!window.__shopflowDoc) {
    window.__shopflowDoc = Math.random().toString(36).slice(2, 10);
    window.__shopflowNext = 0;
  }
  var refs = [];
  for (i = 0; i < found.length; i++) {
    var ref = found[i].getAttribute('data-shopflow-ref');
    if (!ref || ref.indexOf(window.__shopflowDoc + '-') !== 0) {
      window.__shopflowNext++;
      ref = window.__shopflowDoc + '-' + window.__shopflowNext;
      found[i].setAttribute('data-shopflow-ref', ref);
    }
    refs.push(ref);
  }
  return {refs: refs};
}`

	// scriptHitTest scrolls the element into view when needed and reports
	// whether a click at its center would land on it.
	scriptHitTest = `function() {
  var el = this;
  var style = window.getComputedStyle(el);
  var r = el.getBoundingClientRect();
  if (r.width === 0 || r.height === 0 || style.visibility === 'hidden' || style.display === 'none') {
    return {state: 'hidden'};
  }
  if (el.disabled) { return {state: 'disabled'}; }
  if (r.top < 0 || r.left < 0 || r.bottom > window.innerHeight || r.right > window.innerWidth) {
    el.scrollIntoView({block: 'center', inline: 'center'});
    r = el.getBoundingClientRect();
  }
  var x = r.left + r.width / 2;
  var y = r.top + r.height / 2;
  var hit = document.elementFromPoint(x, y);
  if (hit && hit !== el && !el.contains(hit)) {
    var desc = hit.tagName.toLowerCase();
    if (hit.id) { desc += '#' + hit.id; }
    return {state: 'intercepted', by: desc};
  }
  return {state: 'ok', x: x, y: y};
}`

	scriptFocus = `function() {
  this.focus();
  return document.activeElement === this;
}`

	scriptClear = `function() {
  if ('value' in this) { this.value = ''; } else { this.textContent = ''; }
  this.dispatchEvent(new Event('input', {bubbles: true}));
  this.dispatchEvent(new Event('change', {bubbles: true}));
  return true;
}`

	scriptText = `function() {
  return this.innerText === undefined ? (this.textContent || '') : this.innerText;
}`

	scriptAttribute = `function(name) {
  return this.getAttribute(name);
}`

	scriptDisplayed = `function() {
  var style = window.getComputedStyle(this);
  if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') { return false; }
  var r = this.getBoundingClientRect();
  return r.width > 0 && r.height > 0;
}`

	scriptEnabled = `function() {
  return !this.disabled;
}`

	scriptRect = `function() {
  var r = this.getBoundingClientRect();
  return {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height};
}`
)
