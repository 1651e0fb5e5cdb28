package render

// certificateCSS styles the certificate card. It is shared by the capture
// document and the full-page print document.
const certificateCSS = `
:root{
  --gold:#c9a24a;
  --gold-deep:#b18327;
  --ink:#111;
  --ink-soft:#3e4146;
  --line:#ddd4c4;
  --bar-before:#d7cab6;
  --bar-improve:linear-gradient(90deg,#c9a24a,#b18327);
  --bar-regress:#e26b6b;
  --ba-divider:#e1d6c6;
  --ba-head-bg:#f6f1e9;
}
*{box-sizing:border-box}
html,body{margin:0;background:#fff;font-family:Inter,system-ui,-apple-system,'Segoe UI',Roboto,sans-serif;font-size:15px;color:var(--ink)}
.plain *{background:#fff !important;color:#000 !important;box-shadow:none !important;background-image:none !important}
.cert-col.scale-95{transform:scale(.95);transform-origin:top center}
.cert-shell{background:#fff;border:3px solid var(--gold);border-radius:36px;padding:54px 60px 74px;width:1130px;margin:0 auto;position:relative;box-shadow:0 22px 46px -18px rgba(0,0,0,.15)}
.plain .cert-shell,.cert-shell.plain{border:2px solid #000;box-shadow:none}
.logo-wrap{margin:0 0 8px;min-height:122px;display:flex;align-items:center;justify-content:center}
.cert-logo{max-width:420px;height:120px;object-fit:contain;background:#fff}
.logo-fallback{font:800 2.4rem 'Playfair Display',Georgia,serif;color:var(--gold);letter-spacing:2px}
.cert-title{text-align:center;font:800 2.3rem 'Playfair Display',Georgia,serif;margin:4px 0 20px;text-transform:uppercase;color:#101010}
.gen-line{text-align:center;font:600 .5rem Inter,sans-serif;letter-spacing:.2em;text-transform:uppercase;color:var(--ink-soft);margin:-4px 0 26px}
.info-grid{display:grid;gap:18px;grid-template-columns:repeat(4,1fr);margin-bottom:30px}
.info-box{border:1.6px solid #e6dac6;border-radius:16px;padding:12px 15px 14px;display:flex;flex-direction:column;gap:6px;min-height:76px}
.cert-shell.plain .info-box{border:1px solid #000}
.info-box .lbl{font:600 .52rem Inter,sans-serif;letter-spacing:.2em;text-transform:uppercase;color:var(--ink-soft)}
.info-box .val{font:700 .86rem Inter,sans-serif;line-height:1.15;word-break:break-word;color:#121212}
.ba-block{position:relative;margin:12px 0 50px;border:2px solid var(--gold);border-radius:24px;padding:18px 28px 26px}
.ba-headers,.ba-grid{display:grid;grid-template-columns:1fr 1fr}
.ba-headers{margin:0 0 14px}
.ba-grid{gap:18px 26px}
.ba-head{text-align:center;font:700 .75rem Inter,sans-serif;letter-spacing:.22em;text-transform:uppercase;padding:10px 4px 9px;background:var(--ba-head-bg);border:1px solid var(--gold);border-bottom:2px solid var(--gold)}
.ba-cell{background:#f0ede8;border:1px solid #dacfbf;border-radius:16px;height:180px;overflow:hidden;display:flex;align-items:center;justify-content:center;font:700 .6rem Inter,sans-serif;color:#5b5b5b}
.ba-cell img{width:100%;height:100%;object-fit:cover}
.ba-cell.empty{background:repeating-linear-gradient(45deg,#f7f3ed,#f7f3ed 10px,#eee7dd 10px,#eee7dd 20px);color:#8d7d68}
.metrics-table{width:100%;max-width:880px;margin:0 auto 30px;border-collapse:collapse;border:3px solid var(--gold);font:600 .62rem Inter,sans-serif}
.metrics-table th{background:#f5efe2;font:800 .55rem Inter,sans-serif;letter-spacing:.18em;text-transform:uppercase;padding:8px 6px;border:1.6px solid var(--gold)}
.metrics-table td{border:1.6px solid var(--gold);padding:6px;text-align:center;vertical-align:middle}
.metrics-table td.metric{text-align:left;font-weight:700;white-space:nowrap}
.metrics-table tfoot td{font-size:.55rem;letter-spacing:.12em;text-transform:uppercase;color:var(--ink-soft)}
.mini-bar-wrap{position:relative;height:14px;width:120px;margin:0 auto;background:#eee;border:1px solid #d3ccbe;border-radius:12px;overflow:hidden}
.mini-before,.mini-after,.mini-regress{position:absolute;top:0;bottom:0;left:0;width:0}
.mini-before{background:var(--bar-before)}
.mini-after{background:var(--bar-improve)}
.mini-regress{background:var(--bar-regress);opacity:.85}
.notes-block{border:1px solid #eadfca;border-radius:16px;padding:18px 22px 20px;max-width:880px;margin:0 auto 34px}
.notes-block h5{margin:0 0 10px;font:700 .6rem Inter,sans-serif;letter-spacing:.22em;text-transform:uppercase;color:#2a2b2d}
.notes-block ul{margin:0 0 12px;padding-left:20px;font:600 .68rem/1.5 Inter,sans-serif}
.verify-block{display:flex;align-items:center;justify-content:center;gap:16px;margin:0 auto 20px;font:600 .6rem Inter,sans-serif;color:var(--ink-soft)}
.verify-qr{width:84px;height:84px}
.disclaimer{max-width:840px;margin:18px auto 14px;font:600 .52rem/1.38 Inter,sans-serif;letter-spacing:.06em;text-align:center;color:#575a5e}
.avoid-break{break-inside:avoid;page-break-inside:avoid}
`

// pageCSS styles the builder form column and status panel of the print
// document.
const pageCSS = `
.wrap{max-width:1480px;margin:0 auto;padding:20px 30px 70px;display:grid;gap:44px;grid-template-columns:470px 1fr}
fieldset{border:1px solid var(--line);border-radius:18px;padding:16px 18px 20px;margin:0 0 16px}
legend{font:700 .65rem Inter,sans-serif;letter-spacing:.18em;text-transform:uppercase;padding:0 10px;color:var(--ink-soft)}
label{display:flex;flex-direction:column;gap:4px;margin:0 0 12px;font:600 .58rem Inter,sans-serif;text-transform:uppercase;color:var(--ink-soft)}
input,textarea{border:1px solid var(--line);padding:9px 11px;border-radius:10px;font:600 .82rem Inter,sans-serif}
.actions{display:flex;flex-wrap:wrap;gap:10px;margin:4px 0 16px}
.actions span{border:1px solid var(--line);border-radius:10px;padding:10px 18px;font:700 .62rem Inter,sans-serif;text-transform:uppercase}
.tag-grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(160px,1fr));gap:6px 12px}
.tag-grid .tag{display:flex;flex-direction:row;align-items:center;gap:6px;font-size:.8rem}
.tag-grid .tag.custom{font-style:italic}
.status-panel{position:fixed;left:12px;bottom:12px;background:#111;color:#fff;font:600 .55rem Inter,sans-serif;padding:8px 10px;border-radius:10px;max-width:260px}
`

// printCSS hides everything except the certificate when printing.
const printCSS = `
@media print{
  .form-col,#dataForm,form,fieldset,legend,.actions,input,select,textarea,.status-panel,.status-panel *{display:none !important;visibility:hidden !important}
  .wrap{grid-template-columns:1fr !important;padding:0 !important}
  .cert-shell{box-shadow:none !important;margin:0 auto !important;padding:40px 50px 56px !important}
  .ba-block,.ba-cell,.notes-block,.info-grid,.logo-wrap,.gen-line{break-inside:avoid;page-break-inside:avoid}
  .metrics-table thead{display:table-header-group}
  body{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;background:#fff !important}
}
`
