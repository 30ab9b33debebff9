// Package config loads figura project files.
//
// A project file describes a page fixture and the views to build on it.
// It is looked up as figura.json, figura.yaml or figura.yml in the
// project directory.
//
// # Configuration File Structure
//
//	name: demo
//	page: index.html
//	serve:
//	  addr: ":7070"
//	output:
//	  target: dist/index.html
//	  pretty: true
//	views:
//	  - name: app
//	    el: "#app"
//	    diff: true
//	    events:
//	      "click .item": toggle
//	    childrenEl:
//	      items[]: ".item"
//	    props:
//	      title: Inbox
//	    content: |
//	      <h1>{{ .Props.title }}</h1>
//	      {{ placeholder "sidebar" }}
//	    subviews:
//	      - name: sidebar
//	        fromTemplate: true
//	        content: <aside class="item">menu</aside>
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
