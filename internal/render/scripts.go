package render

var scrollToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`

var scrollByJS = `(dy) => window.scrollBy(0, dy)`
