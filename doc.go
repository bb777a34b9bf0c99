// Package restclient normalizes HTTP interaction behind a single façade:
// CRUD verbs, multipart file upload with progress and cancellation, and file
// download, all funneled through one pipeline with pluggable hooks and a
// unified error model.
//
// Every call flows through descriptor build, pre-request hook, transport,
// decode, processor, and post-response hook; any failure collapses into a
// single *Error
// carrying either the HTTP status and a content-type-shaped detail, or a
// stable network/config code (100-106) with Status == -1.
//
// # Basic Usage
//
//	client, err := restclient.New(restclient.Config{
//	    BaseURL: "https://api.example.com",
//	    PreRequestHook: func(method, url string) *restclient.PreInterceptor {
//	        return &restclient.PreInterceptor{
//	            Headers: map[string]string{"Authorization": "Bearer " + cachedToken()},
//	        }
//	    },
//	})
//
//	v, err := client.Get(ctx, "/users", restclient.WithQuery(map[string]string{"page": "1"}))
//
// # Uploads
//
//	handle := client.AsyncUpload(ctx, "/files", nil,
//	    restclient.File{Name: "report.pdf", Data: data},
//	    restclient.UploadCallback{
//	        OnProgress: func(pct int) { fmt.Println(pct, "%") },
//	        OnComplete: func(v any) { done <- v },
//	        OnError:    func(e *restclient.Error) { fail <- e },
//	    })
//	handle.Cancel() // safe at any time, including after settlement
//
// The rest subpackage adds typed generic helpers over the same pipeline.
package restclient
