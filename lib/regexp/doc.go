/*Package regexp defines regular expression functions for starlark, modelled
on the regexp primitives of STklos Scheme.

  outline: regexp
    regexp defines regular expression functions for starlark
    path: regexp
    functions:
      compile(pattern) regexp
        Compile a regular expression pattern into a regexp value. Other functions
        accept either a string or a regexp value as the pattern; a string used
        many times is faster to compile once.
        params:
          pattern string
            regular expression pattern string
      is_regexp(x) bool
        Report whether x is a regexp value.
      match(pattern, string) list
        Match pattern against string. Return None if there is no match,
        otherwise a list of the matched text followed by the text of each
        group, None for a group that did not participate.
        params:
          pattern string or regexp
            regular expression to match
          string string
            input string to match
      match_positions(pattern, string) list
        Like match, but return (start, end) character positions. A group that
        did not participate is (0, 0).
        params:
          pattern string or regexp
            regular expression to match
          string string
            input string to match
      quote(string) string
        Escape the characters \ . ? * + | [ ] { } ( ) of string.

    types:
      regexp
        fields:
          pattern string
          groups int
          engine string
        functions:
          match(string)
          match_positions(string)

*/
package regexp
